package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsOrderedMigrations(t *testing.T) {
	names, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0001_categories.up.sql",
		"0002_stores_products.up.sql",
		"0003_offers.up.sql",
	}, names)
}
