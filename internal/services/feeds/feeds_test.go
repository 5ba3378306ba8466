package feeds

import (
	"testing"

	"card-tracker/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownSources(t *testing.T) {
	for _, s := range pricing.KnownSources() {
		f, err := Lookup(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, f.Source)
		assert.NotEmpty(t, f.Table)
		assert.NotEmpty(t, f.KeyColumn)
		assert.NotEmpty(t, f.DefaultCurrency)
		assert.NotEmpty(t, f.Columns)
	}
}

func TestLookupUnknownSource(t *testing.T) {
	_, err := Lookup("not-a-vendor")
	assert.Error(t, err)
}

func TestAllFollowsPriorityOrder(t *testing.T) {
	all := All()
	require.Len(t, all, len(pricing.KnownSources()))
	assert.Equal(t, pricing.SourceTCGPlayer, all[0].Source)
}

func TestRawRowString(t *testing.T) {
	row := RawRow{
		"s": "12.50",
		"b": []byte("$9.99"),
		"f": 3.5,
		"i": int64(7),
		"n": nil,
	}
	assert.Equal(t, "12.50", row.String("s"))
	assert.Equal(t, "$9.99", row.String("b"))
	assert.Equal(t, "3.5", row.String("f"))
	assert.Equal(t, "7", row.String("i"))
	assert.Equal(t, "", row.String("n"))
	assert.Equal(t, "", row.String("missing"))
}

func TestRawRowTime(t *testing.T) {
	ts, ok := RawRow{"t": "2025-05-02 09:30:00"}.Time("t")
	require.True(t, ok)
	assert.Equal(t, 2025, ts.Year())

	_, ok = RawRow{"t": "yesterday-ish"}.Time("t")
	assert.False(t, ok)

	_, ok = RawRow{}.Time("t")
	assert.False(t, ok)
}
