// Package wizard implements the five-step profile-setup state machine:
// photo, personal info, interests, location & privacy, follow suggestions,
// then an atomic submission and a terminal completion state.
package wizard

import (
	"context"
	"strconv"
	"sync"

	"github.com/foodclipz/go-client/api"
	clienterrors "github.com/foodclipz/go-client/internal/errors"
	"github.com/foodclipz/go-client/username"
	"github.com/foodclipz/go-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// TotalSteps is the number of interactive wizard steps.
const TotalSteps = 5

// API is the slice of the FoodClipz client the wizard drives. Only Next on
// the final step touches the network.
type API interface {
	username.AvailabilityClient
	CompleteProfileSetup(ctx context.Context, submission api.ProfileSubmission) (*users.User, error)
}

// Wizard owns the step sequence, per-step validity and the accumulated
// draft. It is the only writer of its Draft.
type Wizard struct {
	api  API
	log  zerolog.Logger
	user *users.User

	mu                sync.Mutex
	draft             Draft
	step              int
	submitting        bool
	complete          bool
	usernameAvailable bool
	checkingUsername  bool
	checker           *username.Checker
	checkerOptions    []username.CheckerOption
	onUsernameResult  func(username.Result)
}

// Option defines a function type to modify the Wizard instance.
type Option func(*Wizard)

// WithLogger sets the wizard logger.
func WithLogger(log zerolog.Logger) Option {
	return func(w *Wizard) {
		w.log = log
	}
}

// WithUsernameDebounce overrides the availability-check debounce.
func WithUsernameDebounce(opt username.CheckerOption) Option {
	return func(w *Wizard) {
		w.checkerOptions = append(w.checkerOptions, opt)
	}
}

// New initializes a Wizard for the given verified-but-incomplete user.
func New(apiClient API, user *users.User, options ...Option) (*Wizard, error) {
	if apiClient == nil {
		return nil, errors.New("[wizard.New] api client is required")
	}
	if user == nil {
		return nil, errors.New("[wizard.New] user is required")
	}

	w := &Wizard{
		api:               apiClient,
		log:               zerolog.Nop(),
		user:              user,
		draft:             NewDraft(),
		step:              1,
		usernameAvailable: true,
	}

	for _, opt := range options {
		opt(w)
	}

	checkerOptions := append([]username.CheckerOption{
		username.WithExcludeUserID(strconv.FormatInt(user.ID, 10)),
		username.WithCheckerLogger(w.log),
	}, w.checkerOptions...)

	checker, err := username.NewChecker(apiClient, w.applyUsernameResult, checkerOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "[wizard.New]")
	}
	w.checker = checker

	return w, nil
}

// Step returns the current step, 1..TotalSteps.
func (w *Wizard) Step() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Submitting reports whether the final submission is in flight.
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Completed reports whether the wizard reached its terminal state.
func (w *Wizard) Completed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.complete
}

// Draft returns a copy of the accumulated draft.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.clone()
}

// User returns the user snapshot, updated by a successful submission.
func (w *Wizard) User() *users.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.user
}

// SetPhoto records the local path of the chosen profile photo.
func (w *Wizard) SetPhoto(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.PhotoPath = path
}

// SetBio sets the bio field.
func (w *Wizard) SetBio(bio string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Bio = bio
}

// SetFavoriteCuisine sets the favourite cuisine field.
func (w *Wizard) SetFavoriteCuisine(cuisine string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.FavoriteCuisine = cuisine
}

// SetLocation sets the location field.
func (w *Wizard) SetLocation(location string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Location = location
}

// SetPrivacy replaces the privacy toggles.
func (w *Wizard) SetPrivacy(flags PrivacyFlags) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Privacy = flags
}

// ToggleInterest selects or deselects an interest tag.
func (w *Wizard) ToggleInterest(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.HasInterest(id) {
		w.draft.Interests = removeString(w.draft.Interests, id)
		return
	}
	w.draft.Interests = append(w.draft.Interests, id)
}

// SetFollowing marks or unmarks a suggested user for following.
func (w *Wizard) SetFollowing(id string, follow bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if follow && !w.draft.IsFollowing(id) {
		w.draft.Following = append(w.draft.Following, id)
		return
	}
	if !follow {
		w.draft.Following = removeString(w.draft.Following, id)
	}
}

// UpdateUsername feeds one edit of the username field. The sanitized value
// lands in the draft immediately; availability resolves through the
// debounced checker and gates the personal-info step until it settles.
func (w *Wizard) UpdateUsername(ctx context.Context, text string) {
	sanitized := username.Sanitize(text)

	w.mu.Lock()
	w.draft.Username = sanitized
	w.mu.Unlock()

	w.checker.Input(ctx, sanitized)
}

// OnUsernameResult registers a read-only observer of availability updates
// (the rendering layer's spinner and validation icon).
func (w *Wizard) OnUsernameResult(fn func(username.Result)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onUsernameResult = fn
}

func (w *Wizard) applyUsernameResult(result username.Result) {
	w.mu.Lock()
	// A result for a value the draft has since moved past must not gate or
	// ungate the step.
	if result.Candidate == w.draft.Username {
		w.checkingUsername = result.Checking
		w.usernameAvailable = result.Err == nil && result.Available
	}
	observer := w.onUsernameResult
	w.mu.Unlock()

	if observer != nil {
		observer(result)
	}
}

// CanAdvance reports whether the current step's validity predicate holds.
// Step 2 requires a confirmed-available username of at least three
// characters with no check in flight; step 3 requires at least one selected
// interest; every other step is always satisfiable.
func (w *Wizard) CanAdvance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canAdvanceLocked()
}

func (w *Wizard) canAdvanceLocked() bool {
	switch w.step {
	case 2:
		return len(w.draft.Username) >= 3 && w.usernameAvailable && !w.checkingUsername
	case 3:
		return len(w.draft.Interests) >= 1
	default:
		return true
	}
}

// Next advances one step when the current step's predicate holds. On the
// final step it submits the whole draft instead; a failed submission keeps
// the wizard at the final step with the draft untouched.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	if w.complete {
		w.mu.Unlock()
		return errors.Wrap(clienterrors.ErrValidation, "[Wizard.Next] wizard already complete")
	}
	if w.submitting {
		w.mu.Unlock()
		return errors.Wrap(clienterrors.ErrValidation, "[Wizard.Next] submission in flight")
	}
	if !w.canAdvanceLocked() {
		step := w.step
		w.mu.Unlock()
		return errors.Wrapf(clienterrors.ErrValidation, "[Wizard.Next] step %d incomplete", step)
	}
	if w.step < TotalSteps {
		w.step++
		w.mu.Unlock()
		return nil
	}
	w.submitting = true
	submission := w.submissionLocked()
	w.mu.Unlock()

	return w.submit(ctx, submission)
}

// Back moves one step backwards; it is not offered at step 1.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step <= 1 {
		return errors.Wrap(clienterrors.ErrValidation, "[Wizard.Back] already at first step")
	}
	if w.submitting || w.complete {
		return errors.Wrap(clienterrors.ErrValidation, "[Wizard.Back] wizard finished")
	}
	w.step--
	return nil
}

func (w *Wizard) submit(ctx context.Context, submission api.ProfileSubmission) error {
	updated, err := w.api.CompleteProfileSetup(ctx, submission)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if err != nil {
		w.log.Err(err).Msg("profile setup submission failed")
		return errors.Wrap(err, "[Wizard.submit]")
	}

	updated.ProfileCompleted = true
	w.user = updated
	w.complete = true
	w.log.Info().Str("username", updated.Username).Msg("profile setup complete")
	return nil
}

func (w *Wizard) submissionLocked() api.ProfileSubmission {
	draft := w.draft.clone()
	return api.ProfileSubmission{
		UserID:          w.user.ID,
		Username:        draft.Username,
		Bio:             draft.Bio,
		FavoriteCuisine: draft.FavoriteCuisine,
		Location:        draft.Location,
		Interests:       draft.Interests,
		PrivacySettings: draft.privacyMap(),
		FollowingUsers:  draft.Following,
		ProfileImage:    draft.PhotoPath,
	}
}

// Close discards the wizard, cancelling any pending availability check. The
// draft is dropped with it; nothing is persisted server-side.
func (w *Wizard) Close() {
	w.checker.Close()
}

// StepTitle returns the heading of a step.
func StepTitle(step int) string {
	switch step {
	case 1:
		return "Add Profile Photo"
	case 2:
		return "Tell Us About You"
	case 3:
		return "Your Food Interests"
	case 4:
		return "Location & Privacy"
	case 5:
		return "Follow Food Experts"
	}
	return ""
}
