package plan

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCatalog(t *testing.T) {
	entries := Catalog()
	assert.NotEmpty(t, entries)

	seen := make(map[string]bool)
	for _, entry := range entries {
		assert.False(t, seen[entry.Name], "duplicate plan name %s", entry.Name)
		seen[entry.Name] = true

		assert.True(t, entry.MonthlyPrice.GreaterThan(decimal.Zero),
			"%s has a non-positive price", entry.Name)
		assert.Equal(t, "brl", entry.Currency)
		assert.NotEmpty(t, entry.Features, "%s has no features", entry.Name)
		assert.NotEmpty(t, entry.Description)
	}
	assert.True(t, seen["Essencial"])
	assert.True(t, seen["Profissional"])
	assert.True(t, seen["Premium"])
}
