// Command mock serves an in-memory GoLogin API for local runs.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"profile_sync/internal/accounts"
	"profile_sync/internal/model"
	"profile_sync/internal/provider/gologin/gologintest"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	token := flag.String("token", "mock-token", "bearer token clients must send; empty accepts any")
	seed := flag.String("seed", "", "profile names to create at startup, comma separated")
	flag.Parse()

	fake := gologintest.NewServer(*token)
	for _, name := range accounts.Usernames([]string{*seed}) {
		id := fake.Seed(name, &model.Proxy{Mode: model.ProxyModeNone})
		log.Printf("seeded profile %s (%s)", name, id)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/mock/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.Handle("/", fake)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("mock gologin listening on %s", *addr)
	log.Fatal(srv.ListenAndServe())
}
