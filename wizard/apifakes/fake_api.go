package apifakes

import (
	"context"
	"sync"

	"github.com/foodclipz/go-client/api"
	"github.com/foodclipz/go-client/users"
	"github.com/foodclipz/go-client/wizard"
)

var _ wizard.API = (*FakeAPI)(nil)

// FakeAPI is an in-memory stand-in for the slice of *api.Client the wizard
// drives.
type FakeAPI struct {
	lock sync.Mutex

	Availability   map[string]bool
	CheckErr       error
	UsernameChecks []string

	CompleteErr    error
	CompleteResult *users.User
	CompleteCalls  []api.ProfileSubmission
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{Availability: make(map[string]bool)}
}

func (f *FakeAPI) CheckUsername(_ context.Context, username, _ string) (bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.UsernameChecks = append(f.UsernameChecks, username)
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

// CompleteCallCount returns how many submissions were attempted.
func (f *FakeAPI) CompleteCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.CompleteCalls)
}
