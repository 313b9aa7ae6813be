package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/erp/bullion/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add swap index", "add_swap_index"},
		{"Add-Swap-Index", "add_swap_index"},
		{"ADD_SWAP_INDEX", "add_swap_index"},
		{"add__swap__index", "add_swap_index"},
		{"Widen Codes 40", "widen_codes_40"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add swap index", "Index swapped sale items")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_swap_index.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_swap_index.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add swap index")
	assert.Contains(t, string(up), "Index swapped sale items")
	assert.Contains(t, string(up), "Write your UP migration SQL here")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")

	second, err := CreateMigration(dir, "widen codes", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)
	assert.True(t, strings.HasSuffix(second.UpPath, "000002_widen_codes.up.sql"))
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_swap_index.up.sql":   {Data: []byte("-- up")},
		"000002_add_swap_index.down.sql": {Data: []byte("-- down")},
		"000001_init_ledger.up.sql":      {Data: []byte("-- up")},
		"000001_init_ledger.down.sql":    {Data: []byte("-- down")},
		"000003_no_rollback.up.sql":      {Data: []byte("-- up")},
		"README.md":                      {Data: []byte("docs")},
		"embed.go":                       {Data: []byte("package migrations")},
		"draft.up.sql":                   {Data: []byte("-- no version")},
		"subdir.up.sql/file":             {Data: []byte("nested")},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)

	assert.Equal(t, []Migration{
		{Version: 1, Name: "init_ledger", HasDown: true},
		{Version: 2, Name: "add_swap_index", HasDown: true},
		{Version: 3, Name: "no_rollback", HasDown: false},
	}, got)
	assert.Equal(t, "000002_add_swap_index", got[1].BaseName())
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	assert.Equal(t, uint(1), got[0].Version)
	assert.Equal(t, "init_ledger", got[0].Name)
	for i, mg := range got {
		assert.Equal(t, uint(i+1), mg.Version, "versions must be contiguous")
		assert.True(t, mg.HasDown, "%s has no down migration", mg.BaseName())
	}
}
