// Command foodclipz is a development harness for the client core: it sends
// a magic link for the given email and waits for the verification deep link
// on the loopback bridge.
//
//	foodclipz <email> ["Full Name"]
//
// With a full name the send registers a new account.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/foodclipz/go-client/api"
	"github.com/foodclipz/go-client/deeplink"
	"github.com/foodclipz/go-client/internal/config"
	clienterrors "github.com/foodclipz/go-client/internal/errors"
	"github.com/foodclipz/go-client/session"
	"github.com/foodclipz/go-client/username"
	"github.com/foodclipz/go-client/wizard"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running client: %s\n", err)
	}
	log.Printf("Client stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(os.Args) < 2 {
		return errors.New("usage: foodclipz <email> [\"Full Name\"]")
	}
	email := os.Args[1]

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	client, err := api.NewClient(c.GetAPIBaseURL(),
		api.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("api.NewClient %w", err)
	}

	controller, err := session.NewController(client,
		session.WithLogger(logger),
		session.WithResendCooldown(c.GetResendCooldown()),
		session.WithWizardOptions(wizard.WithUsernameDebounce(username.WithDebounce(c.GetUsernameDebounce()))),
	)
	if err != nil {
		return fmt.Errorf("session.NewController %w", err)
	}
	controller.OnChange(func(s session.Snapshot) {
		logger.Info().Stringer("status", s.Status).Str("pending_email", s.PendingEmail).Msg("session changed")
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bridge, listener, err := wireDeepLinks(c, controller, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := bridge.ListenAndServe(); err != nil {
			logger.Err(err).Msg("bridge stopped")
		}
	}()
	go func() {
		_ = listener.Run(ctx)
	}()

	if err := sendLink(ctx, controller, email); err != nil {
		return err
	}
	logger.Info().Str("bridge", c.GetBridgePort()).Msg("waiting for verification deep link, Ctrl-C to stop")

	<-ctx.Done()
	return shutdown(bridge)
}

func sendLink(ctx context.Context, controller *session.Controller, email string) error {
	if len(os.Args) >= 3 {
		return controller.Register(ctx, email, os.Args[2])
	}
	err := controller.Login(ctx, email)
	if clienterrors.Is(err, clienterrors.ErrUserNotFound) {
		return fmt.Errorf("no account for %s, pass a full name to register: %w", email, err)
	}
	return err
}

func wireDeepLinks(c config.Config, controller *session.Controller, logger zerolog.Logger) (*deeplink.Bridge, *deeplink.Listener, error) {
	parser, err := deeplink.NewParser(c.GetURLScheme())
	if err != nil {
		return nil, nil, fmt.Errorf("deeplink.NewParser %w", err)
	}
	bridge, err := deeplink.NewBridge(c.GetURLScheme(), c.GetBridgePort(), deeplink.WithBridgeLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("deeplink.NewBridge %w", err)
	}
	listener, err := deeplink.NewListener(parser, bridge,
		controller.HandleDeepLinkSuccess,
		controller.HandleDeepLinkError,
		deeplink.WithListenerLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("deeplink.NewListener %w", err)
	}
	return bridge, listener, nil
}

func shutdown(bridge *deeplink.Bridge) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bridge.Shutdown(ctx); err != nil {
		return fmt.Errorf("bridge.Shutdown %w", err)
	}
	return nil
}

func displayAppname(appName string) {
	banner := figure.NewFigure(appName, "", true)
	banner.Print()
}
