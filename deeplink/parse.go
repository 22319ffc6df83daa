package deeplink

import (
	"encoding/json"
	"net/url"
	"strings"

	clienterrors "github.com/foodclipz/go-client/internal/errors"
	"github.com/foodclipz/go-client/users"
	"github.com/pkg/errors"
)

// EventType identifies the outcome a verification deep link carries.
type EventType string

const (
	VerificationSucceeded EventType = "verification_succeeded"
	VerificationFailed    EventType = "verification_failed"
)

// Event is the decoded outcome of a verification deep link.
type Event struct {
	Type   EventType
	User   *users.User // set for VerificationSucceeded
	Reason string      // set for VerificationFailed
}

// Parser decodes app-scheme verification URLs. Two shapes are recognised:
//
//	<scheme>://auth/success?user=<url-encoded JSON>
//	<scheme>://auth/error
type Parser struct {
	scheme string
}

// NewParser returns a Parser for the given URL scheme (e.g. "foodclipz").
func NewParser(scheme string) (*Parser, error) {
	if strings.TrimSpace(scheme) == "" {
		return nil, errors.New("[NewParser] scheme is required")
	}
	return &Parser{scheme: scheme}, nil
}

// Parse decodes raw into an Event. URLs outside this parser's scheme or the
// auth host return (nil, nil) so callers can ignore unrelated links. A
// recognised success URL with a missing or malformed user payload returns an
// error wrapping clienterrors.ErrDeepLinkDecode.
func (p *Parser) Parse(raw string) (*Event, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(clienterrors.ErrDeepLinkDecode, "parse url: %s", err.Error())
	}
	if u.Scheme != p.scheme || u.Host != "auth" {
		return nil, nil
	}

	switch strings.Trim(u.Path, "/") {
	case "success":
		return p.parseSuccess(u)
	case "error":
		return &Event{Type: VerificationFailed, Reason: "Verification failed"}, nil
	}
	return nil, nil
}

func (p *Parser) parseSuccess(u *url.URL) (*Event, error) {
	encoded := u.Query().Get("user")
	if encoded == "" {
		return nil, errors.Wrap(clienterrors.ErrDeepLinkDecode, "success link missing user payload")
	}

	var user users.User
	if err := json.Unmarshal([]byte(encoded), &user); err != nil {
		return nil, errors.Wrapf(clienterrors.ErrDeepLinkDecode, "invalid user payload: %s", err.Error())
	}
	return &Event{Type: VerificationSucceeded, User: &user}, nil
}
