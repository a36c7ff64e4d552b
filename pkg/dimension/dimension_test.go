package dimension

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/badgeshot/pkg/models"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestParse(t *testing.T) {
	d, err := Parse("832x1216")
	require.NoError(t, err)
	assert.Equal(t, models.Dimension{Width: 832, Height: 1216}, d)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "missing width", input: "x1024"},
		{name: "missing height", input: "1024x"},
		{name: "no separator", input: "1024"},
		{name: "non-numeric", input: "widexhigh"},
		{name: "zero", input: "0x512"},
		{name: "negative", input: "-5x512"},
		{name: "spaces", input: " 512x512"},
		{name: "upper X", input: "512X512"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)

			var malformed *MalformedSpecError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.input, malformed.Input)
			assert.Contains(t, err.Error(), `"`+tt.input+`"`)
			assert.Contains(t, err.Error(), "WIDTHxHEIGHT")
		})
	}
}

func TestPickEmptySupported(t *testing.T) {
	rng := newRand(1)
	lo := models.Dimension{Width: 64, Height: 64}
	hi := models.Dimension{Width: 128, Height: 128}
	assert.Equal(t, Fallback, Pick(lo, hi, nil, rng))
	assert.Equal(t, models.Dimension{Width: 1024, Height: 1024}, Pick(lo, hi, []models.Dimension{}, rng))
}

func TestPickOnlyLandscapeReturnsFirst(t *testing.T) {
	supported := []models.Dimension{
		{Width: 1344, Height: 768},
		{Width: 1216, Height: 832},
	}
	got := Pick(models.Dimension{Width: 512, Height: 512}, models.Dimension{Width: 1024, Height: 1024}, supported, newRand(7))
	assert.Equal(t, supported[0], got)
}

func TestPickClosestArea(t *testing.T) {
	supported := []models.Dimension{
		{Width: 1536, Height: 640},
		{Width: 512, Height: 512},
		{Width: 768, Height: 1024},
		{Width: 1024, Height: 1024},
	}
	// Degenerate range: the draw is always exactly 700x1100 = 770000.
	// 768x1024 = 786432 is the nearest portrait area.
	bound := models.Dimension{Width: 700, Height: 1100}
	for seed := range uint64(20) {
		assert.Equal(t, models.Dimension{Width: 768, Height: 1024}, Pick(bound, bound, supported, newRand(seed)))
	}
}

func TestPickTieGoesToFirst(t *testing.T) {
	supported := []models.Dimension{
		{Width: 500, Height: 800},
		{Width: 800, Height: 500},
		{Width: 400, Height: 1000},
	}
	// Both portrait entries have area 400000; the first wins.
	bound := models.Dimension{Width: 600, Height: 600}
	assert.Equal(t, supported[0], Pick(bound, bound, supported, newRand(3)))
}

func TestPickReversedBounds(t *testing.T) {
	supported := []models.Dimension{{Width: 512, Height: 512}, {Width: 1024, Height: 1024}}
	got := Pick(models.Dimension{Width: 1024, Height: 1024}, models.Dimension{Width: 1000, Height: 1000}, supported, newRand(5))
	assert.Equal(t, models.Dimension{Width: 1024, Height: 1024}, got)
}

func TestSelect(t *testing.T) {
	supported := []models.Dimension{{Width: 1024, Height: 1024}}
	d, err := Select("512x512", "1024x1024", supported, newRand(9))
	require.NoError(t, err)
	assert.Equal(t, supported[0], d)

	_, err = Select("512", "1024x1024", supported, newRand(9))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"512"`)

	_, err = Select("512x512", "big", supported, newRand(9))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"big"`)
}

func TestPortraitKeepsOrder(t *testing.T) {
	got := portrait([]models.Dimension{{Width: 2, Height: 1}, {Width: 1, Height: 2}, {Width: 1, Height: 1}})
	assert.Equal(t, []models.Dimension{{Width: 1, Height: 2}, {Width: 1, Height: 1}}, got)
}

func TestSelectHugeBoundsPicksLargestArea(t *testing.T) {
	supported := []models.Dimension{
		{Width: 512, Height: 512},
		{Width: 896, Height: 1152},
		{Width: 1024, Height: 1024},
		{Width: 768, Height: 1344},
	}
	for seed := uint64(0); seed < 20; seed++ {
		d, err := Select("9999999999x9999999999", "9999999999x9999999999", supported, newRand(seed))
		require.NoError(t, err)
		assert.Equal(t, models.Dimension{Width: 1024, Height: 1024}, d)
	}
}
