package session

import (
	"time"

	"github.com/aristath/flipper/internal/domain"
)

// State of the controller.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// MessageKind identifies what a worker reported.
type MessageKind string

const (
	MessagePublished     MessageKind = "published"
	MessageBalanceSynced MessageKind = "balance_synced"
	MessageCycleFailed   MessageKind = "cycle_failed"
)

// Message is handed from a worker to the foreground through the outbox.
type Message struct {
	Kind       MessageKind
	Generation uint64
	SessionID  string
	Target     domain.ItemID
	Result     *domain.PricingResult
	Balance    float64
	Err        error
	At         time.Time
}

// Session is one tracking run. A newer generation invalidates older ones.
type Session struct {
	ID         string        `json:"id"`
	Generation uint64        `json:"generation"`
	Target     domain.ItemID `json:"target"`
	Recipe     domain.Recipe `json:"-"`
	StartedAt  time.Time     `json:"started_at"`
}

// Plan is a resolved target with its recipe, ready to be committed.
type Plan struct {
	Query      string
	Resolution domain.Resolution
	Target     domain.ItemID
	Corrected  bool
	Recipe     domain.Recipe
}

// ConfirmFunc decides whether an approximate match should be used.
type ConfirmFunc func(res domain.Resolution) bool

// AcceptAll accepts every suggestion.
func AcceptAll(domain.Resolution) bool { return true }

// RejectAll keeps the operator's own input.
func RejectAll(domain.Resolution) bool { return false }
