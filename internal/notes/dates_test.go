package notes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrenchFormat(t *testing.T) {
	ts := time.Date(2026, time.February, 5, 9, 7, 0, 0, time.UTC)
	assert.Equal(t, "5 févr. à 09:07", French.Format(ts))

	ts = time.Date(2026, time.December, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "31 déc. à 23:59", French.Format(ts))
}

func TestEnglishFormat(t *testing.T) {
	ts := time.Date(2026, time.October, 19, 14, 3, 0, 0, time.UTC)
	assert.Equal(t, "19 Oct, 14:03", English.Format(ts))
}

func TestParse_RoundTrip(t *testing.T) {
	for _, loc := range []Locale{French, English} {
		for m := time.January; m <= time.December; m++ {
			ts := time.Date(2026, m, 12, 18, 45, 0, 0, time.UTC)
			got, ok := loc.Parse(loc.Format(ts), 2026, time.UTC)
			require.True(t, ok, "%s %s", loc.Name, loc.Format(ts))
			assert.True(t, ts.Equal(got), "%s: want %v got %v", loc.Name, ts, got)
		}
	}
}

func TestParse_LenientForms(t *testing.T) {
	want := time.Date(2026, time.October, 19, 14, 3, 0, 0, time.UTC)
	for _, s := range []string{
		"19 oct. à 14:03",
		"19 OCT. à 14:03",
		"19 oct., 14:03",
		"  19 oct. 14:03 ",
	} {
		got, ok := French.Parse(s, 2026, time.UTC)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), s)
	}
}

func TestParse_DecomposedAccent(t *testing.T) {
	// "févr. à" with combining accents, as some keyboards produce.
	got, ok := French.Parse("3 fe\u0301vr. a\u0300 08:00", 2026, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.February, got.Month())
}

func TestParse_FailuresMapToEpoch(t *testing.T) {
	for _, s := range []string{
		"",
		"hier",
		"19 foo. à 14:03",
		"19 oct.",
		"x oct. à 14:03",
		"19 oct. à 1403",
		"19 oct. à 25:00",
		"19 oct. à 12:75",
		"0 oct. à 12:00",
	} {
		got, ok := French.Parse(s, 2026, time.UTC)
		assert.False(t, ok, s)
		assert.True(t, got.Equal(time.Unix(0, 0)), s)
	}
}

func TestLookupLocale(t *testing.T) {
	l, err := LookupLocale("")
	require.NoError(t, err)
	assert.Equal(t, "fr", l.Name)

	l, err = LookupLocale("EN")
	require.NoError(t, err)
	assert.Equal(t, "en", l.Name)

	_, err = LookupLocale("tlh")
	assert.Error(t, err)
}
