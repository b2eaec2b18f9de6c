package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPorts() []Port {
	return []Port{
		{Name: "Istanbul", Country: "TR", Region: "Marmara", Lon: 28.98, Lat: 41.01},
		{Name: "Trieste", Country: "IT", Region: "Adriatic", Lon: 13.77, Lat: 45.65, IsEEA: true},
		{Name: "Izmir", Country: "TR", Region: "Aegean", Lon: 27.14, Lat: 38.42},
		{Name: "Rotterdam", Country: "NL", Region: "North Sea", Lon: 4.48, Lat: 51.92, IsEEA: true},
		{Name: "Antwerp", Country: "BE", Region: "North Sea", Lon: 4.40, Lat: 51.22, Alternate: "Antwerpen", IsEEA: true},
		{Name: "Mersin", Country: "TR", Region: "Levant", Lon: 34.64, Lat: 36.80},
		{Name: "Port of Spain", Country: "TT", Region: "Caribbean", Lon: -61.52, Lat: 10.65},
		{Name: "Trondheim", Country: "NO", Region: "Norwegian Sea", Lon: 10.40, Lat: 63.43, IsEEA: true},
	}
}

func testDirectory(t *testing.T) *PortDirectory {
	t.Helper()
	d, err := NewPortDirectory(testPorts())
	require.NoError(t, err)
	return d
}

func names(ports []Port) []string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.Name
	}
	return out
}

func TestNewPortDirectory(t *testing.T) {
	t.Run("empty set is an error", func(t *testing.T) {
		_, err := NewPortDirectory(nil)
		require.ErrorIs(t, err, ErrNoPorts)
	})

	t.Run("out of range longitude", func(t *testing.T) {
		_, err := NewPortDirectory([]Port{{Name: "Nowhere", Lon: 181, Lat: 0}})
		require.ErrorIs(t, err, ErrInvalidCoordinates)
		assert.Contains(t, err.Error(), "Nowhere")
	})

	t.Run("out of range latitude", func(t *testing.T) {
		_, err := NewPortDirectory([]Port{{Name: "Pole", Lon: 0, Lat: -90.5}})
		require.ErrorIs(t, err, ErrInvalidCoordinates)
	})

	t.Run("caller mutation does not leak in", func(t *testing.T) {
		ports := testPorts()
		d, err := NewPortDirectory(ports)
		require.NoError(t, err)
		ports[0].Name = "Changed"
		assert.Equal(t, "Istanbul", d.All()[0].Name)
		assert.Equal(t, len(ports), d.Len())
	})
}

func TestSearch_ShortQueries(t *testing.T) {
	d := testDirectory(t)

	assert.Empty(t, d.Search("", 10))
	assert.Empty(t, d.Search("a", 10))
	assert.Empty(t, d.Search("  r  ", 10), "whitespace is trimmed before the length check")
	assert.NotNil(t, d.Search("a", 10), "empty slice, not nil")
}

func TestSearch_CountryCodeRanksFirst(t *testing.T) {
	d := testDirectory(t)

	got := d.Search("TR", 10)

	// Every Turkish port comes before ports that merely contain "tr" in a name.
	require.GreaterOrEqual(t, len(got), 5)
	assert.Equal(t, []string{"Istanbul", "Izmir", "Mersin"}, names(got[:3]))
	for _, p := range got[:3] {
		assert.Equal(t, "TR", p.Country)
	}
	assert.Equal(t, []string{"Trieste", "Trondheim"}, names(got[3:5]))
}

func TestSearch_CountryCodeIsCaseInsensitive(t *testing.T) {
	d := testDirectory(t)
	assert.Equal(t, names(d.Search("TR", 10)), names(d.Search("tr", 10)))
}

func TestSearch_TruncatesAfterRanking(t *testing.T) {
	d := testDirectory(t)

	// Mersin is the last Turkish port in storage order and sorts last by name,
	// yet it must survive truncation ahead of the name matches.
	got := d.Search("tr", 3)
	assert.Equal(t, []string{"Istanbul", "Izmir", "Mersin"}, names(got))
}

func TestSearch_NameBeforeOtherFields(t *testing.T) {
	d := testDirectory(t)

	got := d.Search("north", 10)
	assert.Equal(t, []string{"Antwerp", "Rotterdam"}, names(got), "region matches sort by name")

	got = d.Search("antwerpen", 10)
	assert.Equal(t, []string{"Antwerp"}, names(got), "alternate alias matches")

	got = d.Search("port", 10)
	require.NotEmpty(t, got)
	assert.Equal(t, "Port of Spain", got[0].Name)
}

func TestSearch_LimitZeroReturnsAll(t *testing.T) {
	d := testDirectory(t)
	assert.Len(t, d.Search("tr", 0), 5)
}

func TestSearch_IdempotentAndStable(t *testing.T) {
	d := testDirectory(t)
	first := d.Search("er", 10)
	for range 5 {
		assert.Equal(t, first, d.Search("er", 10))
	}
}

func TestByCountry(t *testing.T) {
	d := testDirectory(t)
	assert.Equal(t, []string{"Istanbul", "Izmir", "Mersin"}, names(d.ByCountry("tr")))
	assert.Empty(t, d.ByCountry(" "))
}

func TestLookupByCoordinates(t *testing.T) {
	d := testDirectory(t)

	t.Run("within tolerance", func(t *testing.T) {
		p, ok := d.LookupByCoordinates(4.485, 51.915, 0)
		require.True(t, ok)
		assert.Equal(t, "Rotterdam", p.Name)
	})

	t.Run("outside tolerance", func(t *testing.T) {
		_, ok := d.LookupByCoordinates(4.50, 51.92, 0)
		assert.False(t, ok)
	})

	t.Run("custom tolerance", func(t *testing.T) {
		p, ok := d.LookupByCoordinates(4.50, 51.92, 0.05)
		require.True(t, ok)
		assert.Equal(t, "Rotterdam", p.Name)
	})

	t.Run("first in storage order wins", func(t *testing.T) {
		twins, err := NewPortDirectory([]Port{
			{Name: "Zeta Terminal", Country: "NL", Lon: 4.480, Lat: 51.920},
			{Name: "Alpha Terminal", Country: "NL", Lon: 4.482, Lat: 51.921},
		})
		require.NoError(t, err)

		p, ok := twins.LookupByCoordinates(4.481, 51.920, 0)
		require.True(t, ok)
		assert.Equal(t, "Zeta Terminal", p.Name)
	})
}
