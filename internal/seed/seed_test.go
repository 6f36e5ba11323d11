package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/accounts"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/logging"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

func newSeeder(st *store.Memory) *Seeder {
	log := logging.Discard()
	tokens := auth.NewTokenManager("access", "refresh", time.Minute, time.Hour)
	return New(catalog.NewService(st, log), accounts.NewService(st, tokens, log), log)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	s := newSeeder(st)

	stale := &models.Product{Name: "Old", Description: "old", Category: "misc"}
	require.NoError(t, st.CreateProduct(ctx, stale))

	admin := Admin{Name: "Admin", Email: "Admin@Example.com", Password: "secret123"}
	require.NoError(t, s.Run(ctx, Options{Admin: admin}))

	n, err := st.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(SampleProducts())), n)

	_, err = st.FindProduct(ctx, stale.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	u, err := st.FindUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	t.Run("rerun keeps the existing admin", func(t *testing.T) {
		require.NoError(t, s.Run(ctx, Options{Admin: admin}))
		users, err := st.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), users)
	})

	t.Run("destroy", func(t *testing.T) {
		require.NoError(t, s.Run(ctx, Options{Destroy: true}))
		n, err := st.CountProducts(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
