// Package session implements the top-level session controller: the state
// machine that decides, from magic-link results, deep-link events and
// wizard completion, which of the unauthenticated, pending-verification,
// profile-setup and authenticated states the client is in.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/foodclipz/go-client/api"
	clienterrors "github.com/foodclipz/go-client/internal/errors"
	"github.com/foodclipz/go-client/internal/utils"
	"github.com/foodclipz/go-client/users"
	"github.com/foodclipz/go-client/wizard"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// API is the slice of the FoodClipz client the controller and its wizard
// drive. *api.Client satisfies it.
type API interface {
	SendMagicLink(ctx context.Context, email string, firstName, lastName *string) error
	CheckUsername(ctx context.Context, username, excludeUserID string) (bool, error)
	CompleteProfileSetup(ctx context.Context, submission api.ProfileSubmission) (*users.User, error)
}

const defaultResendCooldown = 60 * time.Second

// Controller owns the Session exclusively; every mutation goes through its
// transition methods and subscribers only ever see read-only snapshots.
type Controller struct {
	api           API
	log           zerolog.Logger
	cooldown      time.Duration
	nowTime       func() time.Time
	wizardOptions []wizard.Option

	mu             sync.Mutex
	status         Status
	pendingEmail   string
	hint           *RegistrationHint
	user           *users.User
	lastError      string
	resendDeadline time.Time
	setupWizard    *wizard.Wizard
	subscribers    []func(Snapshot)
}

// ControllerOption defines a function type to modify the Controller instance.
type ControllerOption func(*Controller)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

// WithResendCooldown overrides the 60-second resend cooldown.
func WithResendCooldown(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.cooldown = d
	}
}

// WithLogger sets the controller logger.
func WithLogger(log zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = log
	}
}

// WithWizardOptions forwards options to wizards created by
// BeginProfileSetup.
func WithWizardOptions(options ...wizard.Option) ControllerOption {
	return func(c *Controller) {
		c.wizardOptions = append(c.wizardOptions, options...)
	}
}

// NewController initializes a Controller in the Unauthenticated state.
func NewController(apiClient API, options ...ControllerOption) (*Controller, error) {
	if apiClient == nil {
		return nil, errors.New("[NewController] api client is required")
	}

	controller := &Controller{
		api:      apiClient,
		log:      zerolog.Nop(),
		cooldown: defaultResendCooldown,
		nowTime:  time.Now,
		status:   StatusUnauthenticated,
	}

	for _, opt := range options {
		opt(controller)
	}

	return controller, nil
}

// OnChange registers a read-only subscriber invoked after every transition.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Snapshot returns the current read-only session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Status returns the current lifecycle status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Login requests a magic link for an existing account. The email is trimmed
// of surrounding whitespace and otherwise case-preserved. A login against an
// unknown address surfaces clienterrors.ErrUserNotFound so the caller can
// offer registration instead; the session stays Unauthenticated.
func (c *Controller) Login(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return c.fail(errors.Wrap(clienterrors.ErrValidation, "[Controller.Login] email is required"))
	}
	if status := c.Status(); status != StatusUnauthenticated {
		return errors.Wrapf(clienterrors.ErrValidation, "[Controller.Login] not available in state %s", status)
	}

	if err := c.api.SendMagicLink(ctx, email, nil, nil); err != nil {
		return c.fail(errors.Wrap(err, "[Controller.Login]"))
	}

	c.mu.Lock()
	c.status = StatusLinkSent
	c.pendingEmail = email
	c.hint = nil
	c.lastError = ""
	c.resendDeadline = c.nowTime().Add(c.cooldown)
	c.mu.Unlock()

	c.log.Info().Str("email", email).Msg("magic link sent")
	c.notify()
	return nil
}

// Register requests a magic link for a new account. fullName must contain a
// first and a last name; everything after the first word is the surname. The
// name is kept as a registration hint so resends pre-register it too.
func (c *Controller) Register(ctx context.Context, email, fullName string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(fullName) == "" {
		return c.fail(errors.Wrap(clienterrors.ErrValidation, "[Controller.Register] full name and email are required"))
	}

	nameParts := strings.Fields(fullName)
	if len(nameParts) < 2 {
		return c.fail(errors.Wrap(clienterrors.ErrValidation, "[Controller.Register] both first and last name are required"))
	}
	firstName := nameParts[0]
	lastName := strings.Join(nameParts[1:], " ")

	if status := c.Status(); status != StatusUnauthenticated {
		return errors.Wrapf(clienterrors.ErrValidation, "[Controller.Register] not available in state %s", status)
	}

	if err := c.api.SendMagicLink(ctx, email, utils.Ptr(firstName), utils.Ptr(lastName)); err != nil {
		return c.fail(errors.Wrap(err, "[Controller.Register]"))
	}

	c.mu.Lock()
	c.status = StatusLinkSent
	c.pendingEmail = email
	c.hint = &RegistrationHint{FirstName: firstName, LastName: lastName}
	c.lastError = ""
	c.resendDeadline = c.nowTime().Add(c.cooldown)
	c.mu.Unlock()

	c.log.Info().Str("email", email).Msg("registration magic link sent")
	c.notify()
	return nil
}

// Resend re-requests the magic link for the pending email, carrying the
// registration hint when one was captured. It is a self-loop on LinkSent,
// gated by the cooldown; using it resets the countdown.
func (c *Controller) Resend(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusLinkSent {
		status := c.status
		c.mu.Unlock()
		return errors.Wrapf(clienterrors.ErrValidation, "[Controller.Resend] not available in state %s", status)
	}
	if remaining := c.resendDeadline.Sub(c.nowTime()); remaining > 0 {
		c.mu.Unlock()
		return errors.Wrapf(clienterrors.ErrValidation, "[Controller.Resend] cooldown active for another %s", remaining.Round(time.Second))
	}
	email := c.pendingEmail
	hint := c.hint
	c.mu.Unlock()

	var firstName, lastName *string
	if hint != nil {
		firstName = utils.Ptr(hint.FirstName)
		lastName = utils.Ptr(hint.LastName)
	}
	if err := c.api.SendMagicLink(ctx, email, firstName, lastName); err != nil {
		return c.fail(errors.Wrap(err, "[Controller.Resend]"))
	}

	c.mu.Lock()
	c.resendDeadline = c.nowTime().Add(c.cooldown)
	c.lastError = ""
	c.mu.Unlock()

	c.log.Info().Str("email", email).Msg("magic link resent")
	c.notify()
	return nil
}

// HandleDeepLinkSuccess consumes a verified user delivered by the deep-link
// listener. The session passes through Verifying and Verified, then settles
// immediately on Authenticated or ProfileIncomplete depending on the
// server-reported completion flag.
func (c *Controller) HandleDeepLinkSuccess(user *users.User) {
	if user == nil {
		c.HandleDeepLinkError("Invalid user data received")
		return
	}

	c.mu.Lock()
	if c.status != StatusUnauthenticated && c.status != StatusLinkSent && c.status != StatusVerifying {
		c.mu.Unlock()
		c.log.Warn().Stringer("status", c.Status()).Msg("ignoring deep link in settled session")
		return
	}
	c.status = StatusVerifying
	c.mu.Unlock()
	c.notify()

	c.mu.Lock()
	c.status = StatusVerified
	c.pendingEmail = ""
	c.hint = nil
	c.user = user
	c.lastError = ""
	c.mu.Unlock()
	c.notify()

	// Verified is evaluated immediately, never rendered.
	c.mu.Lock()
	if user.ProfileCompleted {
		c.status = StatusAuthenticated
	} else {
		c.status = StatusProfileIncomplete
	}
	c.mu.Unlock()

	c.log.Info().Int64("user_id", user.ID).Bool("profile_completed", user.ProfileCompleted).Msg("verification succeeded")
	c.notify()
}

// HandleDeepLinkError routes a failed or undecodable verification back to
// Unauthenticated with the reason surfaced.
func (c *Controller) HandleDeepLinkError(reason string) {
	c.mu.Lock()
	if c.status != StatusUnauthenticated && c.status != StatusLinkSent && c.status != StatusVerifying {
		c.mu.Unlock()
		return
	}
	c.status = StatusUnauthenticated
	c.pendingEmail = ""
	c.lastError = reason
	c.mu.Unlock()

	c.log.Warn().Str("reason", reason).Msg("verification failed")
	c.notify()
}

// BeginProfileSetup hands out the setup wizard. Only one wizard exists per
// ProfileIncomplete session; repeated calls return the same one.
func (c *Controller) BeginProfileSetup() (*wizard.Wizard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusProfileIncomplete {
		return nil, errors.Wrapf(clienterrors.ErrValidation, "[Controller.BeginProfileSetup] not available in state %s", c.status)
	}
	if c.setupWizard != nil {
		return c.setupWizard, nil
	}

	w, err := wizard.New(c.api, c.user, append([]wizard.Option{wizard.WithLogger(c.log)}, c.wizardOptions...)...)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.BeginProfileSetup]")
	}
	c.setupWizard = w
	return w, nil
}

// FinishProfileSetup transitions to Authenticated once the wizard reports
// Complete, adopting its finalized user (profileCompleted forced true).
func (c *Controller) FinishProfileSetup() error {
	c.mu.Lock()
	if c.status != StatusProfileIncomplete {
		status := c.status
		c.mu.Unlock()
		return errors.Wrapf(clienterrors.ErrValidation, "[Controller.FinishProfileSetup] not available in state %s", status)
	}
	if c.setupWizard == nil || !c.setupWizard.Completed() {
		c.mu.Unlock()
		return errors.Wrap(clienterrors.ErrValidation, "[Controller.FinishProfileSetup] wizard not complete")
	}

	finalized := c.setupWizard.User()
	finalized.ProfileCompleted = true
	c.user = finalized
	c.status = StatusAuthenticated
	c.setupWizard = nil
	c.mu.Unlock()

	c.log.Info().Int64("user_id", finalized.ID).Msg("profile setup finished")
	c.notify()
	return nil
}

// Logout resets the session to Unauthenticated, clearing the pending email,
// the registration hint, the user and any wizard in progress.
func (c *Controller) Logout() {
	c.mu.Lock()
	if c.setupWizard != nil {
		c.setupWizard.Close()
	}
	c.status = StatusUnauthenticated
	c.pendingEmail = ""
	c.hint = nil
	c.user = nil
	c.lastError = ""
	c.resendDeadline = time.Time{}
	c.setupWizard = nil
	c.mu.Unlock()

	c.log.Info().Msg("logged out")
	c.notify()
}

// fail records a surfaced error without changing the lifecycle state.
func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.lastError = err.Error()
	c.mu.Unlock()
	c.notify()
	return err
}

func (c *Controller) snapshotLocked() Snapshot {
	var resendIn time.Duration
	if c.status == StatusLinkSent {
		if remaining := c.resendDeadline.Sub(c.nowTime()); remaining > 0 {
			resendIn = remaining
		}
	}
	return Snapshot{
		Status:       c.status,
		PendingEmail: c.pendingEmail,
		User:         c.user,
		LastError:    c.lastError,
		ResendIn:     resendIn,
	}
}

// notify invokes subscribers outside the lock so they may read the
// controller freely.
func (c *Controller) notify() {
	c.mu.Lock()
	snapshot := c.snapshotLocked()
	subscribers := append(([]func(Snapshot))(nil), c.subscribers...)
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
