// Package display holds what the operator sees and the foreground loop that updates it.
package display

import (
	"sync"
	"time"

	"github.com/aristath/flipper/internal/domain"
	"github.com/aristath/flipper/internal/modules/history"
	"github.com/aristath/flipper/internal/modules/pricing"
	"github.com/aristath/flipper/internal/modules/session"
	"github.com/rs/zerolog"
)

// Status is the headline shown to the operator.
type Status string

const (
	StatusStandby Status = "standby"
	StatusLive    Status = "live"
)

// Event types pushed to subscribers.
const (
	EventResult  = "result"
	EventBalance = "balance"
	EventError   = "error"
	EventStatus  = "status"
)

// Event is one update pushed to stream subscribers.
type Event struct {
	Type    string                `json:"type"`
	Status  Status                `json:"status"`
	Target  domain.ItemID         `json:"target,omitempty"`
	Result  *domain.PricingResult `json:"result,omitempty"`
	Balance float64               `json:"balance,omitempty"`
	Error   string                `json:"error,omitempty"`
	At      time.Time             `json:"at"`
}

// View is a read-only copy of the display state.
type View struct {
	Status        Status                `json:"status"`
	Target        domain.ItemID         `json:"target,omitempty"`
	SessionID     string                `json:"session_id,omitempty"`
	StartedAt     *time.Time            `json:"started_at,omitempty"`
	Result        *domain.PricingResult `json:"result,omitempty"`
	LastError     string                `json:"last_error,omitempty"`
	LastErrorAt   *time.Time            `json:"last_error_at,omitempty"`
	BudgetText    string                `json:"budget_text"`
	Budget        float64               `json:"budget"`
	SyncedBalance *float64              `json:"synced_balance,omitempty"`
	Profile       *domain.ProfileRef    `json:"profile,omitempty"`
	Stats         history.Stats         `json:"stats"`
}

// StateManager handles thread-safe display state management.
// It is mutated by the foreground loop and read by HTTP handlers.
type StateManager struct {
	log zerolog.Logger
	mu  sync.RWMutex

	status        Status
	target        domain.ItemID
	sessionID     string
	startedAt     time.Time
	result        *domain.PricingResult
	lastError     string
	lastErrorAt   time.Time
	budgetText    string
	syncedBalance *float64
	profile       *domain.ProfileRef
	series        *history.Series

	subscribers map[int]chan Event
	nextSubID   int
}

// NewStateManager creates a new display state manager.
func NewStateManager(historyCapacity int, log zerolog.Logger) *StateManager {
	return &StateManager{
		log:         log.With().Str("component", "display_state_manager").Logger(),
		status:      StatusStandby,
		series:      history.NewSeries(historyCapacity),
		subscribers: make(map[int]chan Event),
	}
}

// BeginSession switches to live mode for sess and clears the previous session's data.
func (sm *StateManager) BeginSession(sess *session.Session) {
	sm.mu.Lock()
	sm.status = StatusLive
	sm.target = sess.Target
	sm.sessionID = sess.ID
	sm.startedAt = sess.StartedAt
	sm.result = nil
	sm.lastError = ""
	sm.lastErrorAt = time.Time{}
	sm.series.Reset()
	event := Event{Type: EventStatus, Status: sm.status, Target: sm.target, At: time.Now()}
	sm.mu.Unlock()

	sm.log.Info().Str("item", sess.Target.String()).Msg("Session live")
	sm.broadcast(event)
}

// EndSession returns to standby. The last result stays visible.
func (sm *StateManager) EndSession() {
	sm.mu.Lock()
	sm.status = StatusStandby
	sm.sessionID = ""
	event := Event{Type: EventStatus, Status: sm.status, Target: sm.target, At: time.Now()}
	sm.mu.Unlock()

	sm.log.Info().Msg("System standby")
	sm.broadcast(event)
}

// Apply folds a worker message into the state.
func (sm *StateManager) Apply(msg session.Message) {
	sm.mu.Lock()
	if msg.SessionID != sm.sessionID {
		sm.mu.Unlock()
		return
	}

	event := Event{Status: sm.status, Target: msg.Target, At: msg.At}
	switch msg.Kind {
	case session.MessagePublished:
		if msg.Result == nil {
			sm.mu.Unlock()
			return
		}
		result := *msg.Result
		sm.result = &result
		sm.lastError = ""
		sm.series.Add(msg.At, result.SellRaw)
		event.Type = EventResult
		event.Result = &result

	case session.MessageBalanceSynced:
		balance := msg.Balance
		sm.syncedBalance = &balance
		sm.budgetText = pricing.BalanceText(balance)
		event.Type = EventBalance
		event.Balance = balance

	case session.MessageCycleFailed:
		if msg.Err != nil {
			sm.lastError = msg.Err.Error()
		}
		sm.lastErrorAt = msg.At
		event.Type = EventError
		event.Error = sm.lastError

	default:
		sm.mu.Unlock()
		return
	}
	sm.mu.Unlock()

	if event.Type == EventResult {
		sm.logResult(event.Result)
	}
	sm.broadcast(event)
}

func (sm *StateManager) logResult(r *domain.PricingResult) {
	sm.log.Info().
		Str("item", r.ItemID.String()).
		Str("cost", pricing.FormatCoins(r.UnitCost)).
		Str("sell", pricing.FormatCoins(r.UnitSellTaxed)).
		Str("profit", pricing.FormatCoins(r.UnitProfit)).
		Str("roi", pricing.FormatPercent(r.ROIPercent)).
		Int64("affordable", r.AffordableCount).
		Str("total_profit", pricing.FormatCoins(r.TotalProfit)).
		Int64("sell_volume", r.SellVolume).
		Msg("Flip update")
}

// SetBudgetText records the budget as typed.
func (sm *StateManager) SetBudgetText(text string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.budgetText = text
}

// SessionID returns the id of the session being displayed, or "" on standby.
func (sm *StateManager) SessionID() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessionID
}

// SetProfile records the linked profile. nil unlinks it and forgets the synced balance.
func (sm *StateManager) SetProfile(ref *domain.ProfileRef) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if ref == nil {
		sm.profile = nil
		sm.syncedBalance = nil
		return
	}
	copied := *ref
	sm.profile = &copied
}

// Snapshot returns a copy of the current state.
func (sm *StateManager) Snapshot() View {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	v := View{
		Status:     sm.status,
		Target:     sm.target,
		SessionID:  sm.sessionID,
		BudgetText: sm.budgetText,
		Budget:     pricing.BudgetFromText(sm.budgetText),
		Stats:      sm.series.Stats(),
	}
	if !sm.startedAt.IsZero() {
		t := sm.startedAt
		v.StartedAt = &t
	}
	if sm.result != nil {
		r := *sm.result
		v.Result = &r
	}
	if sm.lastError != "" {
		v.LastError = sm.lastError
		t := sm.lastErrorAt
		v.LastErrorAt = &t
	}
	if sm.syncedBalance != nil {
		b := *sm.syncedBalance
		v.SyncedBalance = &b
	}
	if sm.profile != nil {
		p := *sm.profile
		v.Profile = &p
	}
	return v
}

// History returns the price series of the current session and its chart bounds.
func (sm *StateManager) History() ([]history.Point, history.Stats, []float64) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var bounds []float64
	if lo, hi, ok := sm.series.ChartRange(); ok {
		bounds = []float64{lo, hi}
	}
	return sm.series.Points(), sm.series.Stats(), bounds
}

// Subscribe registers a subscriber. Events are dropped for subscribers that fall behind.
func (sm *StateManager) Subscribe(buffer int) (int, <-chan Event) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	id := sm.nextSubID
	sm.nextSubID++
	sm.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (sm *StateManager) Unsubscribe(id int) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if ch, ok := sm.subscribers[id]; ok {
		delete(sm.subscribers, id)
		close(ch)
	}
}

func (sm *StateManager) broadcast(event Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for id, ch := range sm.subscribers {
		select {
		case ch <- event:
		default:
			sm.log.Debug().Int("subscriber", id).Msg("Subscriber behind, dropping event")
		}
	}
}
