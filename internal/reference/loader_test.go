package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTypeCatalog(t *testing.T) {
	cat, err := LoadTypeCatalog("testdata")
	require.NoError(t, err)
	require.Len(t, cat, 2)
	assert.Contains(t, cat, "money")
	assert.Contains(t, cat, "contact", "name falls back to the file name")
	assert.Equal(t, "amount with currency scale", cat["money"].Types[0].Note)

	assert.Equal(t, []string{"CurrencyCode", "Email", "Money", "PhoneNumber"}, ValueTypes(cat))
	assert.Equal(t, map[string]string{
		"Money":        "numeric(12,2)",
		"CurrencyCode": "char(3)",
		"Email":        "varchar(320)",
	}, SQLTypes(cat))
}

func TestLoadTypeCatalog_Missing(t *testing.T) {
	cat, err := LoadTypeCatalog(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, cat)

	cat, err = LoadTypeCatalog("")
	require.NoError(t, err)
	assert.Empty(t, ValueTypes(cat))
}

func TestLoadTypeCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("types: [\n"), 0o644))
	_, err := LoadTypeCatalog(dir)
	assert.ErrorContains(t, err, "bad.yaml")
}
