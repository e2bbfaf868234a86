package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderSignInNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	provider := identity.NewProvider()
	var seen []*identity.Identity
	provider.Subscribe(func(_ context.Context, current *identity.Identity) {
		seen = append(seen, current)
	})

	alice := identity.Identity{ID: uuid.New(), Email: "alice@example.com"}
	provider.SignIn(context.Background(), alice)

	require.Len(t, seen, 1)
	require.NotNil(t, seen[0])
	assert.Equal(t, alice.ID, seen[0].ID)

	current := provider.Current()
	require.NotNil(t, current)
	assert.Equal(t, alice.Email, current.Email)
}

func TestProviderSignInSameIdentityIsNoop(t *testing.T) {
	t.Parallel()

	provider := identity.NewProvider()
	calls := 0
	provider.Subscribe(func(_ context.Context, _ *identity.Identity) { calls++ })

	alice := identity.Identity{ID: uuid.New(), Email: "alice@example.com"}
	provider.SignIn(context.Background(), alice)
	provider.SignIn(context.Background(), alice)

	assert.Equal(t, 1, calls)
}

func TestProviderSignOutDeliversNil(t *testing.T) {
	t.Parallel()

	provider := identity.NewProvider()
	var last *identity.Identity
	delivered := 0
	provider.Subscribe(func(_ context.Context, current *identity.Identity) {
		last = current
		delivered++
	})

	provider.SignOut(context.Background()) // already signed out, no event
	assert.Equal(t, 0, delivered)

	provider.SignIn(context.Background(), identity.Identity{ID: uuid.New()})
	provider.SignOut(context.Background())

	assert.Equal(t, 2, delivered)
	assert.Nil(t, last)
	assert.Nil(t, provider.Current())
}

func TestProviderTransitionsDeliveredInOrder(t *testing.T) {
	t.Parallel()

	provider := identity.NewProvider()
	var emails []string
	provider.Subscribe(func(_ context.Context, current *identity.Identity) {
		if current == nil {
			emails = append(emails, "")
			return
		}
		emails = append(emails, current.Email)
	})

	ctx := context.Background()
	provider.SignIn(ctx, identity.Identity{ID: uuid.New(), Email: "a@example.com"})
	provider.SignIn(ctx, identity.Identity{ID: uuid.New(), Email: "b@example.com"})
	provider.SignOut(ctx)

	assert.Equal(t, []string{"a@example.com", "b@example.com", ""}, emails)
}

func TestProviderUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	provider := identity.NewProvider()
	calls := 0
	unsubscribe := provider.Subscribe(func(_ context.Context, _ *identity.Identity) { calls++ })

	provider.SignIn(context.Background(), identity.Identity{ID: uuid.New()})
	unsubscribe()
	provider.SignOut(context.Background())

	assert.Equal(t, 1, calls)
}
