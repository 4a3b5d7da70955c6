package weather

import (
	"fmt"
	"sync"
)

// StatusKind is the phase of the most recent fetch.
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusInProgress
	StatusEmpty
	StatusSuccess
	StatusError
)

var statusNames = map[StatusKind]string{
	StatusIdle:       "idle",
	StatusInProgress: "in_progress",
	StatusEmpty:      "empty",
	StatusSuccess:    "success",
	StatusError:      "error",
}

func (k StatusKind) String() string {
	if n, ok := statusNames[k]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(k))
}

// MarshalText renders the kind by name in JSON payloads.
func (k StatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Status is a StatusKind plus the message of an error status.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message,omitempty"`
}

func statusOf(kind StatusKind) Status { return Status{Kind: kind} }

func statusError(err error) Status {
	return Status{Kind: StatusError, Message: err.Error()}
}

// State is what the UI renders.
type State struct {
	// Current is nil when no city is displayed.
	Current *CityItem `json:"current"`

	// Saved reports whether Current is one of the saved cities.
	Saved bool `json:"saved"`

	Status    Status `json:"status"`
	Lang      string `json:"lang"`
	NetworkOn bool   `json:"networkOn"`
}

// IsEmpty reports whether nothing is displayed.
func (s State) IsEmpty() bool { return s.Current == nil }

// presenter guards State. Every resolve takes a ticket from begin; a write
// carrying a ticket older than the newest one issued is dropped, so a slow
// fetch can never overwrite the result of a later request.
type presenter struct {
	mu     sync.RWMutex
	state  State
	issued uint64
}

func newPresenter(lang string) *presenter {
	return &presenter{state: State{
		Status:    statusOf(StatusIdle),
		Lang:      lang,
		NetworkOn: true,
	}}
}

func (p *presenter) begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued++
	return p.issued
}

// update applies fn unless a newer ticket was issued. Ticket 0 always applies.
func (p *presenter) update(ticket uint64, fn func(*State)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ticket != 0 && ticket < p.issued {
		return false
	}
	fn(&p.state)
	return true
}

func (p *presenter) get() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}
