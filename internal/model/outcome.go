package model

import "time"

type ProvisionState string

const (
	StateSkipped      ProvisionState = "skipped"
	StateUpdated      ProvisionState = "updated"
	StateUpdateFailed ProvisionState = "update_failed"
	StateCreated      ProvisionState = "created"
	StateCreateFailed ProvisionState = "create_failed"
	StateListFailed   ProvisionState = "list_failed"
	StateIneligible   ProvisionState = "ineligible"
)

// Mutated reports whether the remote profile was created or updated.
func (s ProvisionState) Mutated() bool {
	return s == StateCreated || s == StateUpdated
}

type WriteBackState string

const (
	WriteBackNone   WriteBackState = ""
	WriteBackOK     WriteBackState = "writeback_ok"
	WriteBackFailed WriteBackState = "writeback_failed"
)

type Outcome struct {
	Network     Network        `json:"network"`
	Username    string         `json:"username"`
	State       ProvisionState `json:"state"`
	ProfileID   string         `json:"profileId,omitempty"`
	ProfileName string         `json:"profileName,omitempty"`
	FetchStatus AccountStatus  `json:"fetchStatus,omitempty"`
	Cookies     int            `json:"cookies"`
	HasProxy    bool           `json:"hasProxy"`
	WriteBack   WriteBackState `json:"writeBack,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func (o Outcome) Succeeded() bool {
	return o.State.Mutated()
}

type BatchSummary struct {
	RunID      string    `json:"runId"`
	Network    Network   `json:"network"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Outcomes   []Outcome `json:"outcomes"`
}

func (s BatchSummary) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

// Counts tallies outcomes by state.
func (s BatchSummary) Counts() map[ProvisionState]int {
	out := make(map[ProvisionState]int)
	for _, o := range s.Outcomes {
		out[o.State]++
	}
	return out
}
