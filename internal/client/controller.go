// Package client drives analysis requests from the terminal side: it talks to
// the analysis server and owns the loading, retry and error state of one
// token at a time.
package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/tokenscope/internal/history"
	"github.com/irfndi/tokenscope/internal/logging"
	"github.com/irfndi/tokenscope/internal/models"
)

// Status is the lifecycle phase of the current request.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrClosed is returned by operations on a controller after Close.
	ErrClosed = errors.New("controller is closed")
	// ErrNoToken is returned when submitting before a token is bound.
	ErrNoToken = errors.New("no token address bound")
)

// Analyzer performs one analysis round trip.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

// RetryPolicy bounds automatic retries after failed requests.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls per submission.
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy makes three calls, waiting 1s then 2s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Backoff is the delay before the retry that follows failed attempt n (0-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt+1)
}

// State is a snapshot of the controller. Version increases with every change.
type State struct {
	Version         uint64
	TokenIdentifier string
	Prompt          string
	Status          Status
	Result          *models.AnalysisResult
	ErrorMessage    string
	AttemptCount    int
	RetryPending    bool
}

// Settled reports whether no request is in flight or scheduled.
func (s State) Settled() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*Controller)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// WithHistory records every successfully analyzed token in store.
func WithHistory(store history.Store) Option {
	return func(c *Controller) { c.history = store }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller owns the request lifecycle for one bound token. Every issued
// call carries the epoch and token it was issued for; results that no longer
// match are dropped. Listeners run outside the lock.
type Controller struct {
	api       Analyzer
	policy    RetryPolicy
	scheduler Scheduler
	history   history.Store
	logger    logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	epoch     uint64
	timer     Timer
	closed    bool
	listeners map[int]func(State)
	nextID    int
}

func NewController(api Analyzer, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		policy:    DefaultRetryPolicy(),
		scheduler: realScheduler{},
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy.MaxAttempts < 1 {
		c.policy.MaxAttempts = 1
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	c.logger = logging.WithComponent(c.logger, "controller")
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for every state change and returns an unsubscribe func.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.listeners != nil {
			delete(c.listeners, id)
		}
	}
}

// Bind points the controller at token and starts loading it. Any in-flight
// call or pending retry for the previous token is invalidated. Binding the
// current token again does nothing.
func (c *Controller) Bind(token string) error {
	return c.BindPrompt(token, "")
}

// BindPrompt is Bind with an initial prompt for the first request.
func (c *Controller) BindPrompt(token, prompt string) error {
	token = strings.TrimSpace(token)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if token == c.state.TokenIdentifier && c.state.Status != StatusIdle {
		c.mu.Unlock()
		return nil
	}

	c.invalidateLocked()
	c.state = State{Version: c.state.Version, TokenIdentifier: token, Prompt: strings.TrimSpace(prompt)}
	if token != "" {
		c.issueLocked()
	} else {
		c.bumpLocked()
	}
	notify := c.notifierLocked()
	c.mu.Unlock()

	notify()
	return nil
}

// Submit starts a new user-initiated request with prompt for the bound token.
func (c *Controller) Submit(prompt string) error {
	return c.restart(func(s *State) { s.Prompt = strings.TrimSpace(prompt) })
}

// Retry restarts the last submission with a fresh attempt budget.
func (c *Controller) Retry() error {
	return c.restart(func(*State) {})
}

func (c *Controller) restart(update func(*State)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.TokenIdentifier == "" {
		c.mu.Unlock()
		return ErrNoToken
	}

	c.invalidateLocked()
	update(&c.state)
	c.state.AttemptCount = 0
	c.state.ErrorMessage = ""
	c.issueLocked()
	notify := c.notifierLocked()
	c.mu.Unlock()

	notify()
	return nil
}

// Close cancels any in-flight call and pending retry. No state change or
// listener call happens afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.epoch++
	c.stopTimerLocked()
	c.listeners = nil
	c.cancel()
}

// Await blocks until the current request settles, ctx ends or the
// controller is closed.
func (c *Controller) Await(ctx context.Context) (State, error) {
	changed := make(chan struct{}, 1)
	unsubscribe := c.Subscribe(func(State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		c.mu.Lock()
		state, closed := c.state, c.closed
		c.mu.Unlock()

		if closed {
			return state, ErrClosed
		}
		if state.Settled() || (state.Status == StatusIdle && state.TokenIdentifier == "") {
			return state, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return c.State(), ctx.Err()
		case <-c.ctx.Done():
			return c.State(), ErrClosed
		}
	}
}

// invalidateLocked stops the pending retry and makes every outstanding call stale.
func (c *Controller) invalidateLocked() {
	c.epoch++
	c.stopTimerLocked()
	c.state.RetryPending = false
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) bumpLocked() {
	c.state.Version++
}

// issueLocked sends one call for the current token and prompt.
func (c *Controller) issueLocked() {
	c.epoch++
	epoch := c.epoch
	req := models.AnalysisRequest{
		TokenIdentifier: c.state.TokenIdentifier,
		UserPrompt:      c.state.Prompt,
	}

	c.state.Status = StatusLoading
	c.state.Result = nil
	c.state.RetryPending = false
	c.bumpLocked()

	ctx := c.ctx
	go c.run(ctx, epoch, req)
}

func (c *Controller) run(ctx context.Context, epoch uint64, req models.AnalysisRequest) {
	log := logging.WithToken(c.logger, req.TokenIdentifier)
	result, err := c.api.Analyze(ctx, req)

	c.mu.Lock()
	if c.closed || epoch != c.epoch || req.TokenIdentifier != c.state.TokenIdentifier {
		c.mu.Unlock()
		log.Debug("Dropping stale analysis result")
		return
	}

	if err == nil {
		c.state.Status = StatusSuccess
		c.state.Result = result
		c.state.ErrorMessage = ""
		c.state.AttemptCount = 0
		c.state.RetryPending = false
		c.bumpLocked()
		notify := c.notifierLocked()
		c.mu.Unlock()

		c.recordHistory(ctx, req.TokenIdentifier, log)
		notify()
		return
	}

	c.applyFailureLocked(epoch, err, log)
	notify := c.notifierLocked()
	c.mu.Unlock()
	notify()
}

func (c *Controller) applyFailureLocked(epoch uint64, err error, log *logrus.Entry) {
	c.state.ErrorMessage = err.Error()
	attempt := c.state.AttemptCount

	if attempt+1 < c.policy.MaxAttempts {
		delay := c.policy.Backoff(attempt)
		c.state.AttemptCount = attempt + 1
		c.state.Status = StatusLoading
		c.state.RetryPending = true
		c.bumpLocked()

		c.stopTimerLocked()
		c.timer = c.scheduler.AfterFunc(delay, func() { c.fireRetry(epoch) })
		log.WithError(err).WithFields(logrus.Fields{
			"attempt": c.state.AttemptCount,
			"delay":   delay.String(),
		}).Warn("Analysis failed, retry scheduled")
		return
	}

	c.state.AttemptCount = c.policy.MaxAttempts
	c.state.Status = StatusError
	c.state.RetryPending = false
	c.bumpLocked()
	log.WithError(err).Warn("Analysis failed, giving up")
}

func (c *Controller) fireRetry(epoch uint64) {
	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.issueLocked()
	notify := c.notifierLocked()
	c.mu.Unlock()
	notify()
}

func (c *Controller) recordHistory(ctx context.Context, token string, log *logrus.Entry) {
	if c.history == nil {
		return
	}
	if _, err := history.Record(ctx, c.history, token); err != nil {
		log.WithError(err).Warn("Failed to record search history")
	}
}

// notifierLocked captures the state and listeners so they can be invoked
// after the lock is released.
func (c *Controller) notifierLocked() func() {
	if len(c.listeners) == 0 {
		return func() {}
	}
	state := c.state
	fns := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	return func() {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		for _, fn := range fns {
			fn(state)
		}
	}
}
