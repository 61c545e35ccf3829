package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogDefaults(t *testing.T) {
	catalog, err := NewCatalog(nil)
	require.NoError(t, err)
	assert.Equal(t, 10, catalog.Len())

	first := catalog.Periods()[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "08:30", first.Start.String())
	assert.Equal(t, "09:10", first.End.String())
}

func TestNewCatalogRejectsMalformedConfig(t *testing.T) {
	cases := []struct {
		name  string
		specs []string
	}{
		{"garbage", []string{"nonsense"}},
		{"end before start", []string{"09:00-08:30"}},
		{"overlap", []string{"08:30-09:10", "09:00-09:40"}},
		{"non-monotonic", []string{"10:00-10:40", "08:30-09:10"}},
		{"out of range", []string{"25:00-26:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog(tc.specs)
			assert.Error(t, err)
		})
	}
}

func TestResolveExactStartMatch(t *testing.T) {
	catalog, err := NewCatalog(nil)
	require.NoError(t, err)

	at := time.Date(2025, 1, 10, 8, 30, 0, 0, time.Local)
	number, ok := catalog.Resolve(at)
	require.True(t, ok)
	assert.Equal(t, 1, number)

	// A few minutes in is a custom time, not period 1.
	custom := time.Date(2025, 1, 10, 8, 35, 0, 0, time.Local)
	_, ok = catalog.Resolve(custom)
	assert.False(t, ok)

	// Matching a period's end does not resolve either.
	end := time.Date(2025, 1, 10, 9, 10, 0, 0, time.Local)
	_, ok = catalog.Resolve(end)
	assert.False(t, ok)
}

func TestMaterializeResolveRoundTrip(t *testing.T) {
	catalog, err := NewCatalog(nil)
	require.NoError(t, err)

	date := time.Date(2025, 3, 17, 0, 0, 0, 0, time.Local)
	for p := 1; p <= catalog.Len(); p++ {
		start, end, err := catalog.Materialize(p, date)
		require.NoError(t, err)
		assert.True(t, end.After(start))
		assert.Equal(t, date.Day(), start.Day())
		assert.Equal(t, date.Day(), end.Day())

		resolved, ok := catalog.Resolve(start)
		require.True(t, ok)
		assert.Equal(t, p, resolved)
	}
}

func TestMaterializeUnknownPeriod(t *testing.T) {
	catalog, err := NewCatalog(nil)
	require.NoError(t, err)

	_, _, err = catalog.Materialize(0, time.Now())
	assert.Error(t, err)
	_, _, err = catalog.Materialize(catalog.Len()+1, time.Now())
	assert.Error(t, err)
}
