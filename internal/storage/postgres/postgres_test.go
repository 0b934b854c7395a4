package postgres

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"food-order-backend/internal/admin"
)

func TestMigrationNames(t *testing.T) {
	fsys := fstest.MapFS{
		"20240102000000_add_eta.sql": {Data: []byte("SELECT 1;")},
		"0001_init.sql":              {Data: []byte("SELECT 1;")},
		"README.md":                  {Data: []byte("docs")},
	}

	names, err := MigrationNames(fsys)
	require.NoError(t, err)
	require.Equal(t, []string{"0001_init.sql", "20240102000000_add_eta.sql"}, names)

	pending := Pending(names, map[string]bool{"0001_init.sql": true})
	require.Equal(t, []string{"20240102000000_add_eta.sql"}, pending)

	require.Empty(t, Pending(names, map[string]bool{"0001_init.sql": true, "20240102000000_add_eta.sql": true}))
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := MigrationNames(Migrations())
	require.NoError(t, err)
	require.Contains(t, names, "0001_init.sql")
}

func TestGenerateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")
	now := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

	path, err := GenerateMigration(dir, "Add ETA to Orders!", now)
	require.NoError(t, err)
	require.Equal(t, "20240517093000_add_eta_to_orders.sql", filepath.Base(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(body), "-- add_eta_to_orders"))

	_, err = GenerateMigration(dir, "Add ETA to Orders!", now)
	require.Error(t, err)

	_, err = GenerateMigration(dir, "!!!", now)
	require.Error(t, err)
}

func TestWhere(t *testing.T) {
	var w where
	require.Equal(t, "", w.String())

	w.and("o.status = " + w.arg("READY"))
	w.search("50%_off", "o.order_number", "cu.email")
	limit := w.page(admin.Page{Limit: 10, Offset: 20})

	require.Equal(t, " WHERE o.status = $1 AND (o.order_number ILIKE $2 OR cu.email ILIKE $2)", w.String())
	require.Equal(t, " LIMIT $3 OFFSET $4", limit)
	require.Equal(t, []any{"READY", `%50\%\_off%`, 10, 20}, w.args)

	w.search("")
	require.Len(t, w.conds, 2)
}
