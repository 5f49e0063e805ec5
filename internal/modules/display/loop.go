package display

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/flipper/internal/domain"
	"github.com/aristath/flipper/internal/modules/pricing"
	"github.com/aristath/flipper/internal/modules/session"
	"github.com/rs/zerolog"
)

// DefaultTick is how often the loop drains worker results.
const DefaultTick = 250 * time.Millisecond

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("display loop stopped")

// Loop is the single foreground goroutine. Session state changes and
// display updates happen only here; callers post work with Do.
type Loop struct {
	controller *session.Controller
	state      *StateManager
	tick       time.Duration
	commands   chan func()
	stopped    chan struct{}
	log        zerolog.Logger
}

// NewLoop creates a new foreground loop.
func NewLoop(controller *session.Controller, state *StateManager, tick time.Duration, log zerolog.Logger) *Loop {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Loop{
		controller: controller,
		state:      state,
		tick:       tick,
		commands:   make(chan func()),
		stopped:    make(chan struct{}),
		log:        log.With().Str("component", "display_loop").Logger(),
	}
}

// Run processes commands and drains results until ctx is cancelled.
// The running session is stopped on exit.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.stopped)

	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	l.log.Debug().Dur("tick", l.tick).Msg("Display loop started")

	for {
		select {
		case <-ctx.Done():
			l.controller.Close()
			l.drain()
			l.log.Debug().Msg("Display loop stopped")
			return
		case fn := <-l.commands:
			fn()
		case <-ticker.C:
			l.drain()
		}
	}
}

func (l *Loop) drain() {
	l.controller.Drain(l.apply)
}

// apply folds msg into the display state. A synced balance replaces the
// budget text so later cycles start from it when the next sync fails.
func (l *Loop) apply(msg session.Message) {
	l.state.Apply(msg)
	if msg.Kind == session.MessageBalanceSynced && msg.SessionID == l.state.SessionID() {
		l.controller.SetBudgetText(pricing.BalanceText(msg.Balance))
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case l.commands <- wrapped:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return nil
}

// StartTracking resolves query and loads its recipe on the caller's
// goroutine, then supersedes any running session from the loop.
// A failed lookup leaves the current session untouched.
func (l *Loop) StartTracking(ctx context.Context, query string, confirm session.ConfirmFunc) (*session.Session, *session.Plan, error) {
	plan, err := l.controller.Prepare(ctx, query, confirm)
	if err != nil {
		l.log.Warn().Err(err).Str("query", query).Msg("Cannot start tracking")
		return nil, nil, err
	}

	var sess *session.Session
	if err := l.Do(ctx, func() {
		sess = l.controller.Commit(plan)
		l.state.BeginSession(sess)
	}); err != nil {
		return nil, nil, err
	}
	return sess, plan, nil
}

// StopTracking ends the running session.
func (l *Loop) StopTracking(ctx context.Context) error {
	var stopErr error
	if err := l.Do(ctx, func() {
		stopErr = l.controller.Stop()
		if stopErr == nil {
			l.state.EndSession()
		}
	}); err != nil {
		return err
	}
	return stopErr
}

// Toggle stops a running session, or starts one for query when idle.
func (l *Loop) Toggle(ctx context.Context, query string, confirm session.ConfirmFunc) (*session.Session, error) {
	if l.controller.State() == session.StateRunning {
		return nil, l.StopTracking(ctx)
	}
	sess, _, err := l.StartTracking(ctx, query, confirm)
	return sess, err
}

// SetBudget updates the budget text. Unparseable text counts as 0.
func (l *Loop) SetBudget(ctx context.Context, text string) (float64, error) {
	if err := l.Do(ctx, func() {
		l.controller.SetBudgetText(text)
		l.state.SetBudgetText(text)
	}); err != nil {
		return 0, err
	}
	return pricing.BudgetFromText(text), nil
}

// LinkProfile sets the profile whose balance replaces the budget. nil unlinks.
func (l *Loop) LinkProfile(ctx context.Context, ref *domain.ProfileRef) error {
	return l.Do(ctx, func() {
		l.controller.SetProfile(ref)
		l.state.SetProfile(ref)
	})
}

// State returns the display state.
func (l *Loop) State() *StateManager {
	return l.state
}

// Controller returns the session controller.
func (l *Loop) Controller() *session.Controller {
	return l.controller
}
