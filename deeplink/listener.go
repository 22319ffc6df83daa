package deeplink

import (
	"context"

	"github.com/foodclipz/go-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Source is the operating environment's "app opened via external URL"
// channel. InitialURL reports the URL that launched the app cold, if any;
// URLs delivers links received while the app is running.
type Source interface {
	InitialURL(ctx context.Context) (string, error)
	URLs() <-chan string
}

// Listener consumes a Source for the lifetime of the application and routes
// every decoded verification outcome through exactly one of its callbacks.
// Decode failures are reported through OnError and never escape Run.
type Listener struct {
	parser    *Parser
	source    Source
	onSuccess func(*users.User)
	onError   func(reason string)
	log       zerolog.Logger
}

// ListenerOption defines a function type to modify the Listener instance.
type ListenerOption func(*Listener)

// WithListenerLogger sets the listener logger.
func WithListenerLogger(log zerolog.Logger) ListenerOption {
	return func(l *Listener) {
		l.log = log
	}
}

// NewListener initializes a Listener with its verification callbacks.
func NewListener(
	parser *Parser,
	source Source,
	onSuccess func(*users.User),
	onError func(reason string),
	options ...ListenerOption,
) (*Listener, error) {
	if parser == nil {
		return nil, errors.New("[NewListener] parser is required")
	}
	if source == nil {
		return nil, errors.New("[NewListener] source is required")
	}
	if onSuccess == nil {
		return nil, errors.New("[NewListener] onSuccess is required")
	}
	if onError == nil {
		return nil, errors.New("[NewListener] onError is required")
	}

	listener := &Listener{
		parser:    parser,
		source:    source,
		onSuccess: onSuccess,
		onError:   onError,
		log:       zerolog.Nop(),
	}

	for _, opt := range options {
		opt(listener)
	}

	return listener, nil
}

// Run handles the cold-start URL, then blocks consuming the source until ctx
// is cancelled or the source closes its channel. Cancelling ctx is the
// teardown path that deregisters the subscription.
func (l *Listener) Run(ctx context.Context) error {
	initial, err := l.source.InitialURL(ctx)
	if err != nil {
		l.log.Err(err).Msg("failed to read initial URL")
	} else if initial != "" {
		l.handle(initial)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-l.source.URLs():
			if !ok {
				return nil
			}
			l.handle(raw)
		}
	}
}

func (l *Listener) handle(raw string) {
	l.log.Debug().Str("url", raw).Msg("received deep link")

	event, err := l.parser.Parse(raw)
	if err != nil {
		l.log.Err(err).Str("url", raw).Msg("deep link decode failed")
		l.onError("Invalid user data received")
		return
	}
	if event == nil { // unrelated link
		return
	}

	switch event.Type {
	case VerificationSucceeded:
		l.onSuccess(event.User)
	case VerificationFailed:
		l.onError(event.Reason)
	}
}
