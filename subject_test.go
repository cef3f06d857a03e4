package herodb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herodb "github.com/rongrafil/superhero-database-auth"
	"github.com/rongrafil/superhero-database-auth/store"
)

func TestSubjectReplaysCurrentValueOnSubscribe(t *testing.T) {
	subject := herodb.NewSessionSubject(store.NewMemory())

	var seen []*herodb.Session
	subject.Subscribe(func(s *herodb.Session) {
		seen = append(seen, s)
	})

	require.Len(t, seen, 1)
	assert.Nil(t, seen[0], "fresh subject replays the anonymous value")

	subject.Set(context.Background(), &herodb.Session{Username: "alice", Token: "tok-123"})
	subject.Set(context.Background(), nil)

	require.Len(t, seen, 3)
	assert.Equal(t, "alice", seen[1].Username)
	assert.Nil(t, seen[2])
}

func TestSubjectNotifiesInSubscriptionOrder(t *testing.T) {
	subject := herodb.NewSessionSubject(store.NewMemory())

	var order []string
	subject.Subscribe(func(*herodb.Session) { order = append(order, "first") })
	subject.Subscribe(func(*herodb.Session) { order = append(order, "second") })

	order = nil
	subject.Set(context.Background(), &herodb.Session{Username: "alice", Token: "t"})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSubjectUnsubscribeStopsDelivery(t *testing.T) {
	subject := herodb.NewSessionSubject(store.NewMemory())

	calls := 0
	sub := subject.Subscribe(func(*herodb.Session) { calls++ })
	require.Equal(t, 1, calls)

	subject.Unsubscribe(sub)
	subject.Set(context.Background(), &herodb.Session{Username: "alice", Token: "t"})

	assert.Equal(t, 1, calls, "no delivery after unsubscribe")
}

// orderProbe is a SessionStore that records whether the store write landed
// before subscribers were notified.
type orderProbe struct {
	mem      *store.Memory
	sequence *[]string
}

func (p orderProbe) Load(ctx context.Context) (*herodb.Session, error) {
	return p.mem.Load(ctx)
}

func (p orderProbe) Save(ctx context.Context, s *herodb.Session) error {
	*p.sequence = append(*p.sequence, "persist")
	return p.mem.Save(ctx, s)
}

func (p orderProbe) Delete(ctx context.Context) error {
	*p.sequence = append(*p.sequence, "remove")
	return p.mem.Delete(ctx)
}

func TestSubjectPersistsBeforeNotifying(t *testing.T) {
	var sequence []string
	probe := orderProbe{mem: store.NewMemory(), sequence: &sequence}
	subject := herodb.NewSessionSubject(probe)

	subject.Subscribe(func(s *herodb.Session) {
		if s != nil {
			sequence = append(sequence, "notify")
		}
	})

	subject.Set(context.Background(), &herodb.Session{Username: "alice", Token: "t"})
	require.Equal(t, []string{"persist", "notify"}, sequence)

	sequence = nil
	subject.Set(context.Background(), nil)
	assert.Equal(t, []string{"remove"}, sequence)
}

func TestSubjectSetClearsStoreOnNil(t *testing.T) {
	mem := store.NewMemory()
	subject := herodb.NewSessionSubject(mem)
	ctx := context.Background()

	subject.Set(ctx, &herodb.Session{Username: "alice", Token: "tok"})
	stored, err := mem.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)

	subject.Set(ctx, nil)
	stored, err = mem.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Nil(t, subject.Current())
}

func TestSubjectCurrentReturnsCopy(t *testing.T) {
	subject := herodb.NewSessionSubject(store.NewMemory())
	subject.Set(context.Background(), &herodb.Session{Username: "alice", Token: "tok"})

	first := subject.Current()
	first.Username = "mallory"

	assert.Equal(t, "alice", subject.Current().Username)
}

func TestSubjectStoreFailureDoesNotAbortNotify(t *testing.T) {
	subject := herodb.NewSessionSubject(&failingStore{saveErr: assert.AnError})

	notified := false
	subject.Subscribe(func(s *herodb.Session) {
		notified = s != nil
	})

	subject.Set(context.Background(), &herodb.Session{Username: "alice", Token: "t"})

	assert.True(t, notified, "subscribers still hear about the session")
	require.NotNil(t, subject.Current())
}
