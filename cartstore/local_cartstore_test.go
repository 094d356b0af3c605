package cartstore

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func TestLocalCartStore_UnknownSessionIsEmpty(t *testing.T) {
	s := NewLocalCartStore(quietLogger())
	ctx := context.Background()

	items, err := s.GetCart(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, items)

	n, err := s.ItemCount(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, s.RemoveItem(ctx, "nobody", "1"))
	assert.NoError(t, s.EmptyCart(ctx, "nobody"))
}

func TestLocalCartStore_SessionsAreIndependent(t *testing.T) {
	s := NewLocalCartStore(quietLogger())
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, "a", tee(), 2))
	require.NoError(t, s.AddItem(ctx, "b", hoodie(), 1))
	require.NoError(t, s.EmptyCart(ctx, "b"))

	a, err := s.GetCart(ctx, "a")
	require.NoError(t, err)
	require.Len(t, a, 1)
	assert.Equal(t, 2, a[0].Quantity)

	b, err := s.GetCart(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestLocalCartStore_RemoveItem(t *testing.T) {
	s := NewLocalCartStore(quietLogger())
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, "a", tee(), 2))
	require.NoError(t, s.AddItem(ctx, "a", hoodie(), 1))
	require.NoError(t, s.RemoveItem(ctx, "a", "1"))
	require.NoError(t, s.RemoveItem(ctx, "a", "1"))

	items, err := s.GetCart(ctx, "a")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ID)

	n, err := s.ItemCount(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLocalCartStore_NotifiesObserversOnAdd(t *testing.T) {
	s := NewLocalCartStore(quietLogger())
	ctx := context.Background()

	var got []LineItem
	var sessions []string
	s.Subscribe(ObserverFunc(func(_ context.Context, sessionID string, item LineItem) {
		sessions = append(sessions, sessionID)
		got = append(got, item)
	}))

	require.NoError(t, s.AddItem(ctx, "a", tee(), 2))
	require.NoError(t, s.AddItem(ctx, "a", tee(), 1))

	require.Len(t, got, 2)
	assert.Equal(t, []string{"a", "a"}, sessions)
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, 3, got[1].Quantity)
}

func TestLocalCartStore_InvalidAddDoesNotNotifyOrCreateCart(t *testing.T) {
	s := NewLocalCartStore(quietLogger())
	ctx := context.Background()

	called := false
	s.Subscribe(ObserverFunc(func(context.Context, string, LineItem) { called = true }))

	err := s.AddItem(ctx, "a", tee(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, called)

	err = s.AddItem(ctx, "", tee(), 1)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Empty(t, s.store)
}

func TestLocalCartStore_ObserverMayReenterStore(t *testing.T) {
	s := NewLocalCartStore(quietLogger())
	ctx := context.Background()

	var count int
	s.Subscribe(ObserverFunc(func(ctx context.Context, sessionID string, _ LineItem) {
		count, _ = s.ItemCount(ctx, sessionID)
	}))

	require.NoError(t, s.AddItem(ctx, "a", tee(), 3))
	assert.Equal(t, 3, count)
}

func TestLocalCartStore_ConcurrentAdds(t *testing.T) {
	s := NewLocalCartStore(quietLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddItem(ctx, "a", tee(), 1)
		}()
	}
	wg.Wait()

	items, err := s.GetCart(ctx, "a")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 50, items[0].Quantity)
}

func TestLocalCartStore_Forget(t *testing.T) {
	s := NewLocalCartStore(quietLogger())
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, "a", tee(), 1))
	require.NoError(t, s.AddItem(ctx, "b", hoodie(), 1))
	_, err := s.GetCart(ctx, "c")
	require.NoError(t, err)
	require.NoError(t, s.EmptyCart(ctx, "c"))
	assert.Equal(t, 2, s.Sessions(), "reads do not create carts")

	require.NoError(t, s.Forget(ctx, "a"))
	require.NoError(t, s.Forget(ctx, "nobody"))
	assert.Equal(t, 1, s.Sessions())

	items, err := s.GetCart(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLocalCartStore_Ping(t *testing.T) {
	s := NewLocalCartStore(nil)
	assert.True(t, s.Ping(context.Background()))
	assert.NoError(t, s.Initialize(context.Background()))
}
