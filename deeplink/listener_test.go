package deeplink_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/foodclipz/go-client/deeplink"
	"github.com/foodclipz/go-client/users"
	"github.com/stretchr/testify/require"
)

// fakeSource feeds scripted URLs to the listener.
type fakeSource struct {
	initial string
	urls    chan string
}

func newFakeSource(initial string) *fakeSource {
	return &fakeSource{initial: initial, urls: make(chan string, 8)}
}

func (s *fakeSource) InitialURL(context.Context) (string, error) { return s.initial, nil }
func (s *fakeSource) URLs() <-chan string                        { return s.urls }

// recorder collects callback invocations.
type recorder struct {
	mu        sync.Mutex
	successes []*users.User
	errors    []string
	signal    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{signal: make(chan struct{}, 16)}
}

func (r *recorder) onSuccess(u *users.User) {
	r.mu.Lock()
	r.successes = append(r.successes, u)
	r.mu.Unlock()
	r.signal <- struct{}{}
}

func (r *recorder) onError(reason string) {
	r.mu.Lock()
	r.errors = append(r.errors, reason)
	r.mu.Unlock()
	r.signal <- struct{}{}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for listener callback")
	}
}

func startListener(t *testing.T, source deeplink.Source, rec *recorder) context.CancelFunc {
	t.Helper()
	parser := newParser(t)
	listener, err := deeplink.NewListener(parser, source, rec.onSuccess, rec.onError)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = listener.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestListener_HandlesColdStartURL(t *testing.T) {
	payload := url.QueryEscape(`{"id":3,"profileCompleted":false}`)
	source := newFakeSource("foodclipz://auth/success?user=" + payload)
	rec := newRecorder()
	startListener(t, source, rec)

	rec.wait(t)
	require.Len(t, rec.successes, 1)
	require.Equal(t, int64(3), rec.successes[0].ID)
}

func TestListener_RoutesLiveURLs(t *testing.T) {
	source := newFakeSource("")
	rec := newRecorder()
	startListener(t, source, rec)

	source.urls <- "foodclipz://auth/error"
	rec.wait(t)
	require.Len(t, rec.errors, 1)

	payload := url.QueryEscape(`{"id":9,"profileCompleted":true}`)
	source.urls <- "foodclipz://auth/success?user=" + payload
	rec.wait(t)
	require.Len(t, rec.successes, 1)
	require.True(t, rec.successes[0].ProfileCompleted)
}

func TestListener_SurvivesMalformedPayloads(t *testing.T) {
	source := newFakeSource("")
	rec := newRecorder()
	startListener(t, source, rec)

	source.urls <- "foodclipz://auth/success?user=%7Bnot-json"
	rec.wait(t)
	require.Len(t, rec.errors, 1)
	require.Empty(t, rec.successes)

	// still alive afterwards
	payload := url.QueryEscape(`{"id":1}`)
	source.urls <- "foodclipz://auth/success?user=" + payload
	rec.wait(t)
	require.Len(t, rec.successes, 1)
}

func TestListener_IgnoresUnrelatedLinks(t *testing.T) {
	source := newFakeSource("")
	rec := newRecorder()
	startListener(t, source, rec)

	source.urls <- "foodclipz://clips/42"
	payload := url.QueryEscape(`{"id":1}`)
	source.urls <- "foodclipz://auth/success?user=" + payload

	rec.wait(t)
	require.Empty(t, rec.errors)
	require.Len(t, rec.successes, 1)
}

func TestBridge_EmitsSchemeURLs(t *testing.T) {
	bridge, err := deeplink.NewBridge("foodclipz", ":0")
	require.NoError(t, err)

	server := httptest.NewServer(bridge.Routes())
	t.Cleanup(server.Close)

	rec := newRecorder()
	startListener(t, bridge, rec)

	payload := url.QueryEscape(`{"id":5,"profileCompleted":false}`)
	resp, err := http.Get(server.URL + "/auth/success?user=" + payload)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	rec.wait(t)
	require.Len(t, rec.successes, 1)
	require.Equal(t, int64(5), rec.successes[0].ID)

	resp, err = http.Get(server.URL + "/auth/error")
	require.NoError(t, err)
	_ = resp.Body.Close()

	rec.wait(t)
	require.Len(t, rec.errors, 1)
}
