package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/store"
	"github.com/aussiebroadwan/estate/internal/estate/store/drivers/sqlite"
	"github.com/aussiebroadwan/estate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "estate-seed")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestDefaultData(t *testing.T) {
	t.Parallel()

	d, err := Load("")
	require.NoError(t, err)
	require.Equal(t, []string{"House", "Apartment", "Warehouse", "Land", "Cabin"}, d.Categories)
	require.Len(t, d.PriceBands, 10)
	require.Equal(t, []User{{Name: "juan", Email: "juan@juan.com", Password: "password"}}, d.Users)
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("categories: [House]\nbogus: 1\n"))
	require.Error(t, err)

	_, err = Parse([]byte("categories: ['  ']\n"))
	require.Error(t, err)

	_, err = Parse([]byte("users:\n  - name: x\n"))
	require.Error(t, err)

	d, err := Parse(nil)
	require.NoError(t, err)
	require.Empty(t, d.Categories)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [Loft]\nprice_bands: [Cheap]\n"), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Loft"}, d.Categories)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestImportAndPurge(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	d, err := Load("")
	require.NoError(t, err)

	res, err := Import(ctx, st, d)
	require.NoError(t, err)
	require.Equal(t, Result{Categories: 5, PriceBands: 10, Users: 1}, res)

	u, err := st.Users().GetUserByEmail(ctx, "juan@juan.com")
	require.NoError(t, err)
	require.True(t, u.Confirmed)
	require.NoError(t, cryptox.VerifyPassword("password", u.PasswordHash))

	t.Run("import is all or nothing", func(t *testing.T) {
		_, err := Import(ctx, st, Data{Categories: []string{"Extra"}, Users: d.Users})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		cats, err := st.Categories().ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 5)
	})

	t.Run("purge is blocked by listings", func(t *testing.T) {
		cats, err := st.Categories().ListCategories(ctx)
		require.NoError(t, err)
		bands, err := st.PriceBands().ListPriceBands(ctx)
		require.NoError(t, err)

		l, err := st.Listings().CreateListing(ctx, domain.Listing{
			Title: "x", Description: "x", Street: "x",
			OwnerID: u.ID, CategoryID: cats[0].ID, PriceBandID: bands[0].ID,
		})
		require.NoError(t, err)

		require.Error(t, Purge(ctx, st))
		require.NoError(t, st.Listings().DeleteListing(ctx, l.ID))
	})

	t.Run("purge", func(t *testing.T) {
		require.NoError(t, Purge(ctx, st))

		cats, err := st.Categories().ListCategories(ctx)
		require.NoError(t, err)
		require.Empty(t, cats)
		bands, err := st.PriceBands().ListPriceBands(ctx)
		require.NoError(t, err)
		require.Empty(t, bands)
	})
}
