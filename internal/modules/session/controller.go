// Package session runs the polling loop for the tracked craft.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/flipper/internal/domain"
	"github.com/aristath/flipper/internal/modules/pricing"
	"github.com/aristath/flipper/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrEmptyQuery is returned when there is nothing to track.
var ErrEmptyQuery = errors.New("no item given")

const (
	DefaultPollInterval = 15 * time.Second
	DefaultRetryBackoff = 5 * time.Second
	DefaultOutboxSize   = 64
)

// Config holds controller settings and dependencies.
type Config struct {
	Market       domain.MarketData
	Recipes      domain.RecipeSource
	TaxRates     pricing.TaxRates
	PollInterval time.Duration
	RetryBackoff time.Duration
	OutboxSize   int
	Log          zerolog.Logger
}

// Controller owns the session state machine.
//
// Start, Commit, Stop and the setters are called from the foreground
// goroutine. Workers only read shared state through atomics and hand
// results back through the outbox, which the foreground drains.
type Controller struct {
	market   domain.MarketData
	recipes  domain.RecipeSource
	rates    pricing.TaxRates
	interval time.Duration
	backoff  time.Duration
	log      zerolog.Logger

	ctx        context.Context
	generation atomic.Uint64
	running    atomic.Bool
	budgetText atomic.Pointer[string]
	profile    atomic.Pointer[domain.ProfileRef]
	current    atomic.Pointer[Session]

	mu           sync.Mutex
	cancelActive context.CancelFunc

	outbox chan Message
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewController creates a controller. ctx bounds every worker's network calls.
func NewController(ctx context.Context, cfg Config) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = DefaultOutboxSize
	}
	if cfg.TaxRates == (pricing.TaxRates{}) {
		cfg.TaxRates = pricing.DefaultTaxRates()
	}

	c := &Controller{
		market:   cfg.Market,
		recipes:  cfg.Recipes,
		rates:    cfg.TaxRates,
		interval: cfg.PollInterval,
		backoff:  cfg.RetryBackoff,
		log:      cfg.Log.With().Str("component", "session").Logger(),
		ctx:      ctx,
		outbox:   make(chan Message, cfg.OutboxSize),
		now:      time.Now,
	}
	empty := ""
	c.budgetText.Store(&empty)
	return c
}

// Prepare resolves query and fetches its recipe without changing any state.
// Approximate matches are passed to confirm; a rejection (or a nil confirm)
// falls back to the normalized raw input.
func (c *Controller) Prepare(ctx context.Context, query string, confirm ConfirmFunc) (*Plan, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	res := c.market.Resolve(query)
	plan := &Plan{Query: query, Resolution: res, Target: res.ItemID}

	if res.Kind == domain.ResolutionApproximate {
		if confirm != nil && confirm(res) {
			plan.Corrected = true
			c.log.Info().Str("query", query).Str("item", res.ItemID.String()).Msg("Using suggested item")
		} else {
			plan.Target = res.Fallback
			c.log.Info().Str("query", query).Str("suggestion", res.ItemID.String()).Msg("Suggestion rejected, using input as typed")
		}
	}

	recipe, err := c.recipes.FetchRecipe(ctx, plan.Target)
	if err != nil {
		return nil, err
	}
	plan.Recipe = recipe
	return plan, nil
}

// Commit supersedes any running session and starts a worker for plan.
func (c *Controller) Commit(plan *Plan) *Session {
	gen := c.generation.Add(1)

	sessCtx, cancel := context.WithCancel(c.ctx)
	c.mu.Lock()
	if c.cancelActive != nil {
		c.cancelActive()
	}
	c.cancelActive = cancel
	c.mu.Unlock()

	sess := &Session{
		ID:         uuid.New().String(),
		Generation: gen,
		Target:     plan.Target,
		Recipe:     plan.Recipe,
		StartedAt:  c.now(),
	}
	c.current.Store(sess)
	c.running.Store(true)

	c.log.Info().
		Str("session_id", sess.ID).
		Uint64("generation", gen).
		Str("item", sess.Target.String()).
		Int("ingredients", sess.Recipe.Len()).
		Msg("Tracking started")

	c.wg.Add(1)
	go c.work(sessCtx, sess)

	return sess
}

// Start is Prepare followed by Commit. On error the controller is unchanged.
func (c *Controller) Start(ctx context.Context, query string, confirm ConfirmFunc) (*Session, error) {
	plan, err := c.Prepare(ctx, query, confirm)
	if err != nil {
		return nil, err
	}
	return c.Commit(plan), nil
}

// Stop ends the running session. In-flight workers exit at their next
// checkpoint without publishing.
func (c *Controller) Stop() error {
	wasRunning := c.running.Swap(false)
	c.generation.Add(1)
	c.current.Store(nil)

	c.mu.Lock()
	if c.cancelActive != nil {
		c.cancelActive()
		c.cancelActive = nil
	}
	c.mu.Unlock()

	if !wasRunning {
		return domain.ErrSessionNotRunning
	}
	c.log.Info().Msg("Tracking stopped")
	return nil
}

// Close stops any session and waits for workers to exit.
func (c *Controller) Close() {
	_ = c.Stop()
	c.wg.Wait()
}

// State reports whether a session is running.
func (c *Controller) State() State {
	if c.running.Load() {
		return StateRunning
	}
	return StateIdle
}

// Current returns the running session, or nil.
func (c *Controller) Current() *Session {
	if !c.running.Load() {
		return nil
	}
	return c.current.Load()
}

// Generation returns the current generation counter.
func (c *Controller) Generation() uint64 {
	return c.generation.Load()
}

// SetBudgetText sets the budget as typed by the operator or as last synced
// from the account. It is parsed on every cycle.
func (c *Controller) SetBudgetText(text string) {
	c.budgetText.Store(&text)
}

// BudgetText returns the budget as last set.
func (c *Controller) BudgetText() string {
	return *c.budgetText.Load()
}

// SetProfile links the profile whose balance replaces the budget. nil unlinks.
func (c *Controller) SetProfile(ref *domain.ProfileRef) {
	if ref == nil || ref.IsZero() {
		c.profile.Store(nil)
		return
	}
	copied := *ref
	c.profile.Store(&copied)
}

// Profile returns the linked profile, or nil.
func (c *Controller) Profile() *domain.ProfileRef {
	return c.profile.Load()
}

// Drain applies every queued message of the current generation and
// discards the rest. It never blocks.
func (c *Controller) Drain(apply func(Message)) int {
	applied := 0
	for {
		select {
		case msg := <-c.outbox:
			if !c.isCurrent(msg.Generation) {
				continue
			}
			apply(msg)
			applied++
		default:
			return applied
		}
	}
}

func (c *Controller) isCurrent(gen uint64) bool {
	return c.running.Load() && c.generation.Load() == gen
}

func (c *Controller) work(ctx context.Context, sess *Session) {
	defer c.wg.Done()

	log := c.log.With().Str("session_id", sess.ID).Str("item", sess.Target.String()).Logger()
	required := append(sess.Recipe.Ingredients(), sess.Target)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Worker exiting")
			return
		case <-timer.C:
		}

		if !c.isCurrent(sess.Generation) {
			return
		}

		wait := c.cycle(ctx, sess, required, log)
		if wait <= 0 {
			return
		}
		timer.Reset(wait)
	}
}

// cycle runs one poll and returns how long to sleep before the next one,
// or 0 when the session has been superseded.
func (c *Controller) cycle(ctx context.Context, sess *Session, required []domain.ItemID, log zerolog.Logger) time.Duration {
	defer utils.OperationTimer("poll_cycle", c.interval, log)()

	snapshot, err := c.market.FetchMarketSnapshot(ctx, required)
	if err != nil {
		if !c.isCurrent(sess.Generation) {
			return 0
		}
		log.Warn().Err(err).Dur("retry_in", c.backoff).Msg("Poll failed")
		c.emit(Message{Kind: MessageCycleFailed, Generation: sess.Generation, SessionID: sess.ID, Target: sess.Target, Err: err, At: c.now()})
		return c.backoff
	}

	budget := pricing.BudgetFromText(c.BudgetText())
	if ref := c.profile.Load(); ref != nil {
		if balance, ok := c.market.FetchAccountBalance(ctx, *ref); ok {
			budget = balance
			if c.isCurrent(sess.Generation) {
				c.emit(Message{Kind: MessageBalanceSynced, Generation: sess.Generation, SessionID: sess.ID, Target: sess.Target, Balance: balance, At: c.now()})
			}
		}
	}

	result := pricing.Compute(sess.Recipe, snapshot, sess.Target, budget, c.rates)
	if result.ComputedAt.IsZero() {
		result.ComputedAt = c.now()
	}

	if !c.isCurrent(sess.Generation) {
		return 0
	}

	log.Debug().
		Float64("unit_cost", result.UnitCost).
		Float64("unit_profit", result.UnitProfit).
		Int64("affordable", result.AffordableCount).
		Msg("Cycle complete")
	c.emit(Message{Kind: MessagePublished, Generation: sess.Generation, SessionID: sess.ID, Target: sess.Target, Result: &result, At: c.now()})

	return c.interval
}

func (c *Controller) emit(msg Message) {
	select {
	case c.outbox <- msg:
	default:
		c.log.Warn().Str("kind", string(msg.Kind)).Msg("Outbox full, dropping message")
	}
}
