package main

import "profile_sync/internal/cli"

func main() {
	cli.Execute()
}
