package herodb_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	herodb "github.com/rongrafil/superhero-database-auth"
)

// MockIdentityProvider implements herodb.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, username, password string) (*herodb.Session, error) {
	args := m.Called(ctx, username, password)
	session, _ := args.Get(0).(*herodb.Session)
	return session, args.Error(1)
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, username, password string, attributes map[string]string) error {
	args := m.Called(ctx, username, password, attributes)
	return args.Error(0)
}

func (m *MockIdentityProvider) ConfirmSignUp(ctx context.Context, username, code string) error {
	args := m.Called(ctx, username, code)
	return args.Error(0)
}

func (m *MockIdentityProvider) ResendSignUp(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// recordingNavigator captures logout redirects.
type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Push(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) pushed() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

// recordingSink captures activity events in order.
type recordingSink struct {
	mu     sync.Mutex
	events []herodb.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event herodb.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []herodb.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]herodb.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// failingStore returns the configured errors on every call.
type failingStore struct {
	loadErr   error
	saveErr   error
	deleteErr error
	session   *herodb.Session
}

func (f *failingStore) Load(context.Context) (*herodb.Session, error) {
	return f.session, f.loadErr
}

func (f *failingStore) Save(context.Context, *herodb.Session) error {
	return f.saveErr
}

func (f *failingStore) Delete(context.Context) error {
	return f.deleteErr
}
