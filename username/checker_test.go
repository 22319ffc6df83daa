package username_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/foodclipz/go-client/username"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeAvailability scripts availability responses and can hold a response
// open on a gate so tests control resolution order.
type fakeAvailability struct {
	mu      sync.Mutex
	results map[string]bool
	err     error
	gates   map[string]chan struct{}
	started map[string]chan struct{}
	calls   []string
}

func newFakeAvailability() *fakeAvailability {
	return &fakeAvailability{
		results: make(map[string]bool),
		gates:   make(map[string]chan struct{}),
		started: make(map[string]chan struct{}),
	}
}

func (f *fakeAvailability) CheckUsername(_ context.Context, candidate, _ string) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, candidate)
	gate := f.gates[candidate]
	started := f.started[candidate]
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.results[candidate], nil
}

func (f *fakeAvailability) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// resultCollector records checker results and signals settled (non-checking)
// ones.
type resultCollector struct {
	mu      sync.Mutex
	finals  []username.Result
	settled chan username.Result
}

func newResultCollector() *resultCollector {
	return &resultCollector{settled: make(chan username.Result, 16)}
}

func (c *resultCollector) collect(r username.Result) {
	if r.Checking {
		return
	}
	c.mu.Lock()
	c.finals = append(c.finals, r)
	c.mu.Unlock()
	c.settled <- r
}

func (c *resultCollector) wait(t *testing.T) username.Result {
	t.Helper()
	select {
	case r := <-c.settled:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for checker result")
		return username.Result{}
	}
}

func (c *resultCollector) finalCandidates() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	candidates := make([]string, 0, len(c.finals))
	for _, r := range c.finals {
		candidates = append(candidates, r.Candidate)
	}
	return candidates
}

func newChecker(t *testing.T, client username.AvailabilityClient, collector *resultCollector, options ...username.CheckerOption) *username.Checker {
	t.Helper()
	checker, err := username.NewChecker(client, collector.collect, options...)
	require.NoError(t, err)
	t.Cleanup(checker.Close)
	return checker
}

func TestSanitize(t *testing.T) {
	require.Equal(t, "ada_l", username.Sanitize("Ada_L"))
	require.Equal(t, "adal99", username.Sanitize("Ada-L!99"))
	require.Equal(t, "adalovelace_", username.Sanitize("Ada Lovelace_"))
	require.Equal(t, "", username.Sanitize("!@#"))
}

func TestChecker_Check(t *testing.T) {
	t.Run("short candidates are trivially available without a network call", func(t *testing.T) {
		fake := newFakeAvailability()
		checker := newChecker(t, fake, newResultCollector())

		available, err := checker.Check(context.Background(), "ab", "")
		require.NoError(t, err)
		require.True(t, available)
		require.Zero(t, fake.callCount())
	})

	t.Run("sanitizes before dispatch", func(t *testing.T) {
		fake := newFakeAvailability()
		fake.results["ada_l"] = true
		checker := newChecker(t, fake, newResultCollector())

		available, err := checker.Check(context.Background(), "Ada_L!", "")
		require.NoError(t, err)
		require.True(t, available)
		require.Equal(t, []string{"ada_l"}, fake.calls)
	})

	t.Run("fails closed on errors", func(t *testing.T) {
		fake := newFakeAvailability()
		fake.err = errors.New("boom")
		checker := newChecker(t, fake, newResultCollector())

		available, err := checker.Check(context.Background(), "ada_l", "")
		require.Error(t, err)
		require.False(t, available)
	})
}

func TestChecker_Input(t *testing.T) {
	t.Run("short input settles available immediately", func(t *testing.T) {
		fake := newFakeAvailability()
		collector := newResultCollector()
		checker := newChecker(t, fake, collector, username.WithDebounce(0))

		checker.Input(context.Background(), "ab")
		result := collector.wait(t)
		require.True(t, result.Available)
		require.Zero(t, fake.callCount())
	})

	t.Run("debounce coalesces rapid edits into one check", func(t *testing.T) {
		fake := newFakeAvailability()
		fake.results["ada_l"] = true
		collector := newResultCollector()
		checker := newChecker(t, fake, collector, username.WithDebounce(40*time.Millisecond))

		checker.Input(context.Background(), "ada")
		checker.Input(context.Background(), "ada_")
		checker.Input(context.Background(), "ada_l")

		result := collector.wait(t)
		require.Equal(t, "ada_l", result.Candidate)
		require.True(t, result.Available)
		require.Equal(t, []string{"ada_l"}, fake.calls)
	})

	t.Run("slow earlier response never overwrites a fresher one", func(t *testing.T) {
		fake := newFakeAvailability()
		fake.results["aaaa"] = true
		fake.results["bbbb"] = false
		fake.gates["aaaa"] = make(chan struct{})
		fake.started["aaaa"] = make(chan struct{})
		collector := newResultCollector()
		checker := newChecker(t, fake, collector, username.WithDebounce(0))

		checker.Input(context.Background(), "aaaa")
		<-fake.started["aaaa"] // first check is in flight

		checker.Input(context.Background(), "bbbb")
		result := collector.wait(t)
		require.Equal(t, "bbbb", result.Candidate)
		require.False(t, result.Available)

		close(fake.gates["aaaa"]) // the stale response finally arrives
		time.Sleep(50 * time.Millisecond)
		require.Equal(t, []string{"bbbb"}, collector.finalCandidates())
	})

	t.Run("shrinking below three characters invalidates in-flight checks", func(t *testing.T) {
		fake := newFakeAvailability()
		fake.results["aaaa"] = false
		fake.gates["aaaa"] = make(chan struct{})
		fake.started["aaaa"] = make(chan struct{})
		collector := newResultCollector()
		checker := newChecker(t, fake, collector, username.WithDebounce(0))

		checker.Input(context.Background(), "aaaa")
		<-fake.started["aaaa"]

		checker.Input(context.Background(), "aa")
		result := collector.wait(t)
		require.Equal(t, "aa", result.Candidate)
		require.True(t, result.Available)

		close(fake.gates["aaaa"])
		time.Sleep(50 * time.Millisecond)
		require.Equal(t, []string{"aa"}, collector.finalCandidates())
	})

	t.Run("errors fail closed and surface", func(t *testing.T) {
		fake := newFakeAvailability()
		fake.err = errors.New("boom")
		collector := newResultCollector()
		checker := newChecker(t, fake, collector, username.WithDebounce(0))

		checker.Input(context.Background(), "ada_l")
		result := collector.wait(t)
		require.Error(t, result.Err)
		require.False(t, result.Available)
	})
}
