package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	clienterrors "github.com/foodclipz/go-client/internal/errors"
	"github.com/foodclipz/go-client/users"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// userNotFoundMarker is the literal the API embeds in the error message when
// a login is attempted against an unknown email address.
const userNotFoundMarker = "USER_NOT_FOUND"

// Client talks to the FoodClipz REST API. It holds no session state of its
// own; the session controller decides what each result means.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying *http.Client (primarily for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient initializes a Client for the given API base URL
// (e.g. "https://foodclipz.ddns.net/api").
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// SendMagicLink asks the API to email a single-use login link to email.
// When firstName and lastName are supplied the service pre-registers an
// account with that name on first send. A login attempt against an unknown
// address fails with clienterrors.ErrUserNotFound.
func (c *Client) SendMagicLink(ctx context.Context, email string, firstName, lastName *string) error {
	body := struct {
		Email     string  `json:"email"`
		FirstName *string `json:"firstName,omitempty"`
		LastName  *string `json:"lastName,omitempty"`
	}{Email: email, FirstName: firstName, LastName: lastName}

	if err := c.postJSON(ctx, "/auth/send-magic-link", body, nil); err != nil {
		return errors.Wrap(err, "[Client.SendMagicLink]")
	}
	return nil
}

// VerifyMagicLink redeems a magic-link token directly. The normal flow
// receives verification through the deep-link callback instead; this covers
// clients that capture the token themselves.
func (c *Client) VerifyMagicLink(ctx context.Context, token string) (*users.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.Wrap(clienterrors.ErrValidation, "[Client.VerifyMagicLink] token is required")
	}

	var response userEnvelope
	if err := c.getJSON(ctx, "/auth/verify/"+url.PathEscape(token), &response); err != nil {
		return nil, errors.Wrap(err, "[Client.VerifyMagicLink]")
	}
	return response.user()
}

// CheckUsername reports whether username is free to claim. excludeUserID,
// when non-empty, excludes an existing account from the collision check so a
// user keeping their own name is not reported as taken.
func (c *Client) CheckUsername(ctx context.Context, username, excludeUserID string) (bool, error) {
	path := "/users/check-username/" + url.PathEscape(username)
	if excludeUserID != "" {
		path += "?excludeUserId=" + url.QueryEscape(excludeUserID)
	}

	var response struct {
		Available bool `json:"available"`
	}
	if err := c.getJSON(ctx, path, &response); err != nil {
		return false, errors.Wrap(err, "[Client.CheckUsername]")
	}
	return response.Available, nil
}

// UpdateProfile updates the basic profile fields of an existing account.
func (c *Client) UpdateProfile(ctx context.Context, email, firstName, lastName, bio string) (*users.User, error) {
	body := struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Bio       string `json:"bio"`
	}{Email: email, FirstName: firstName, LastName: lastName, Bio: bio}

	var response userEnvelope
	if err := c.doJSON(ctx, http.MethodPut, "/users/profile", body, &response); err != nil {
		return nil, errors.Wrap(err, "[Client.UpdateProfile]")
	}
	return response.user()
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "json.Marshal")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "http.NewRequestWithContext")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

// do executes a prepared request, maps transport and server failures onto
// the client error taxonomy and decodes a 2xx body into out when non-nil.
func (c *Client) do(req *http.Request, out any) error {
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	c.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", requestID).
		Msg("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(clienterrors.ErrNetwork, "%s %s: %s", req.Method, req.URL.Path, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.serverError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(clienterrors.ErrServer, "malformed response body")
	}
	return nil
}

// serverError translates a non-2xx response. The body is expected to carry
// {"error": "..."}; the message is surfaced verbatim when present.
func (c *Client) serverError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &payload)

	message := payload.Error
	if message == "" {
		message = resp.Status
	}

	if strings.Contains(message, userNotFoundMarker) {
		return errors.Wrap(clienterrors.ErrUserNotFound, message)
	}
	return errors.Wrap(clienterrors.ErrServer, message)
}

// userEnvelope is the {"user": {...}} shape most user-returning endpoints
// respond with.
type userEnvelope struct {
	User *users.User `json:"user"`
}

func (e userEnvelope) user() (*users.User, error) {
	if e.User == nil {
		return nil, errors.Wrap(clienterrors.ErrServer, "response missing user")
	}
	return e.User, nil
}
