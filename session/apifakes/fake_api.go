package apifakes

import (
	"context"
	"sync"

	"github.com/foodclipz/go-client/api"
	"github.com/foodclipz/go-client/session"
	"github.com/foodclipz/go-client/users"
)

var _ session.API = (*FakeAPI)(nil)

// MagicLinkCall records one SendMagicLink invocation.
type MagicLinkCall struct {
	Email     string
	FirstName *string
	LastName  *string
}

// FakeAPI is an in-memory stand-in for *api.Client.
type FakeAPI struct {
	lock sync.Mutex

	MagicLinkErr    error
	MagicLinkCalls  []MagicLinkCall
	Availability    map[string]bool
	CheckErr        error
	UsernameChecks  []string
	CompleteErr     error
	CompleteResult  *users.User
	CompleteCalls   []api.ProfileSubmission
	CheckUsernameFn func(ctx context.Context, username, excludeUserID string) (bool, error)
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{Availability: make(map[string]bool)}
}

func (f *FakeAPI) SendMagicLink(_ context.Context, email string, firstName, lastName *string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.MagicLinkCalls = append(f.MagicLinkCalls, MagicLinkCall{Email: email, FirstName: firstName, LastName: lastName})
	return f.MagicLinkErr
}

func (f *FakeAPI) CheckUsername(ctx context.Context, username, excludeUserID string) (bool, error) {
	f.lock.Lock()
	fn := f.CheckUsernameFn
	f.UsernameChecks = append(f.UsernameChecks, username)
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx, username, excludeUserID)
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if f.CheckErr != nil {
		return false, f.CheckErr
	}
	available, ok := f.Availability[username]
	if !ok {
		return true, nil
	}
	return available, nil
}

func (f *FakeAPI) CompleteProfileSetup(_ context.Context, submission api.ProfileSubmission) (*users.User, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.CompleteCalls = append(f.CompleteCalls, submission)
	if f.CompleteErr != nil {
		return nil, f.CompleteErr
	}
	if f.CompleteResult != nil {
		user := *f.CompleteResult
		return &user, nil
	}
	return &users.User{ID: submission.UserID, Username: submission.Username, ProfileCompleted: true}, nil
}

// MagicLinkCallCount returns how many magic links were requested.
func (f *FakeAPI) MagicLinkCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.MagicLinkCalls)
}

// UsernameCheckCount returns how many availability lookups were dispatched.
func (f *FakeAPI) UsernameCheckCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.UsernameChecks)
}
