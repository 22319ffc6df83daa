// Package username provides debounced, race-free username availability
// checking against the FoodClipz API.
//
// A keystroke stream is funnelled through Input, which restarts a debounce
// timer so only the value the user settled on is dispatched. Because an
// in-flight HTTP request cannot be aborted, every issued check carries a
// monotonically increasing sequence number and a completion only applies
// while its sequence is still the latest one issued; a slow early response
// can never overwrite the result for a fresher value.
package username

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// AvailabilityClient is the remote lookup the checker dispatches to.
type AvailabilityClient interface {
	CheckUsername(ctx context.Context, username, excludeUserID string) (bool, error)
}

// Result is delivered to the OnResult callback as the checker's state
// changes. Checking is true from the keystroke that scheduled a check until
// its response applies or a newer keystroke supersedes it.
type Result struct {
	Candidate string
	Available bool
	Checking  bool
	Err       error
}

const minUsernameLength = 3

// Checker owns the debounce timer and sequence discipline for one username
// field.
type Checker struct {
	client   AvailabilityClient
	onResult func(Result)
	debounce time.Duration
	log      zerolog.Logger

	mu            sync.Mutex
	seq           uint64
	timer         *time.Timer
	excludeUserID string
	closed        bool
}

// CheckerOption defines a function type to modify the Checker instance.
type CheckerOption func(*Checker)

// WithDebounce overrides the debounce delay (primarily for testing).
func WithDebounce(d time.Duration) CheckerOption {
	return func(c *Checker) {
		c.debounce = d
	}
}

// WithExcludeUserID excludes an existing account from the collision check.
func WithExcludeUserID(id string) CheckerOption {
	return func(c *Checker) {
		c.excludeUserID = id
	}
}

// WithCheckerLogger sets the checker logger.
func WithCheckerLogger(log zerolog.Logger) CheckerOption {
	return func(c *Checker) {
		c.log = log
	}
}

// NewChecker initializes a Checker. onResult receives every state change and
// is invoked without internal locks held.
func NewChecker(client AvailabilityClient, onResult func(Result), options ...CheckerOption) (*Checker, error) {
	if client == nil {
		return nil, errors.New("[NewChecker] client is required")
	}
	if onResult == nil {
		return nil, errors.New("[NewChecker] onResult is required")
	}

	checker := &Checker{
		client:   client,
		onResult: onResult,
		debounce: 300 * time.Millisecond,
		log:      zerolog.Nop(),
	}

	for _, opt := range options {
		opt(checker)
	}

	return checker, nil
}

// Sanitize lower-cases s and strips everything outside [a-z0-9_].
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Check performs a single availability lookup. Candidates shorter than three
// characters are trivially available without a network call. Network and
// server failures report unavailable (fail closed) alongside the error.
func (c *Checker) Check(ctx context.Context, candidate, excludeUserID string) (bool, error) {
	candidate = Sanitize(candidate)
	if len(candidate) < minUsernameLength {
		return true, nil
	}

	available, err := c.client.CheckUsername(ctx, candidate, excludeUserID)
	if err != nil {
		return false, errors.Wrap(err, "[Checker.Check]")
	}
	return available, nil
}

// Input feeds one keystroke-level edit of the username field. It restarts
// the debounce timer; when the timer fires the check is dispatched, and its
// completion is discarded if a newer edit has been issued since.
func (c *Checker) Input(ctx context.Context, text string) {
	candidate := Sanitize(text)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	if len(candidate) < minUsernameLength {
		c.mu.Unlock()
		c.onResult(Result{Candidate: candidate, Available: true})
		return
	}

	c.timer = time.AfterFunc(c.debounce, func() {
		c.dispatch(ctx, seq, candidate)
	})
	c.mu.Unlock()

	c.onResult(Result{Candidate: candidate, Checking: true})
}

func (c *Checker) dispatch(ctx context.Context, seq uint64, candidate string) {
	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		return
	}
	excludeUserID := c.excludeUserID
	c.mu.Unlock()

	available, err := c.Check(ctx, candidate, excludeUserID)

	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		c.log.Debug().Str("candidate", candidate).Uint64("seq", seq).Msg("discarding stale availability response")
		return
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Err(err).Str("candidate", candidate).Msg("availability check failed")
		c.onResult(Result{Candidate: candidate, Err: err})
		return
	}
	c.onResult(Result{Candidate: candidate, Available: available})
}

// Close cancels any pending debounce timer and suppresses in-flight
// completions.
func (c *Checker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
