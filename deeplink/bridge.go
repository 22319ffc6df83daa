package deeplink

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Bridge is a loopback HTTP stand-in for the OS URL-scheme channel, used in
// development where no mobile shell delivers app-scheme links. The server
// that emails magic links redirects the browser to this bridge, which
// re-emits the equivalent scheme URL into the listener.
type Bridge struct {
	scheme string
	server *http.Server
	urls   chan string
	log    zerolog.Logger
}

var _ Source = (*Bridge)(nil)

// BridgeOption defines a function type to modify the Bridge instance.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the bridge logger.
func WithBridgeLogger(log zerolog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.log = log
	}
}

// NewBridge initializes a Bridge listening on addr (e.g. ":8484") that
// emits URLs in the given scheme.
func NewBridge(scheme, addr string, options ...BridgeOption) (*Bridge, error) {
	if scheme == "" {
		return nil, errors.New("[NewBridge] scheme is required")
	}
	if addr == "" {
		return nil, errors.New("[NewBridge] addr is required")
	}

	bridge := &Bridge{
		scheme: scheme,
		urls:   make(chan string, 8),
		log:    zerolog.Nop(),
	}

	for _, opt := range options {
		opt(bridge)
	}

	bridge.server = &http.Server{Addr: addr, Handler: bridge.Routes()}
	return bridge, nil
}

// Routes builds the bridge router. Exposed so tests can drive the handler
// without binding a port.
func (b *Bridge) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/auth/success", func(w http.ResponseWriter, req *http.Request) {
		link := b.scheme + "://auth/success"
		if raw := req.URL.RawQuery; raw != "" {
			link += "?" + raw
		}
		b.emit(w, link)
	})
	r.Get("/auth/error", func(w http.ResponseWriter, req *http.Request) {
		b.emit(w, b.scheme+"://auth/error")
	})

	return r
}

func (b *Bridge) emit(w http.ResponseWriter, link string) {
	select {
	case b.urls <- link:
		b.log.Debug().Str("url", link).Msg("bridged deep link")
		w.WriteHeader(http.StatusNoContent)
	default:
		b.log.Warn().Str("url", link).Msg("bridge channel full, link dropped")
		http.Error(w, "listener not draining", http.StatusServiceUnavailable)
	}
}

// InitialURL implements Source. The bridge has no cold-start URL.
func (b *Bridge) InitialURL(context.Context) (string, error) {
	return "", nil
}

// URLs implements Source.
func (b *Bridge) URLs() <-chan string {
	return b.urls
}

// ListenAndServe runs the bridge HTTP server until Shutdown.
func (b *Bridge) ListenAndServe() error {
	if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "[Bridge.ListenAndServe]")
	}
	return nil
}

// Shutdown stops the HTTP server and closes the URL channel.
func (b *Bridge) Shutdown(ctx context.Context) error {
	err := b.server.Shutdown(ctx)
	close(b.urls)
	return errors.Wrap(err, "[Bridge.Shutdown]")
}
