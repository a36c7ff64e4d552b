package diversity

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/badgeshot/pkg/models"
)

func seeded(seed uint64) *Generator {
	return New(rand.New(rand.NewPCG(seed, seed+1)))
}

func TestAttributesShape(t *testing.T) {
	g := seeded(1)
	for range 100 {
		attrs := g.Attributes(models.Female)

		var age string
		for _, a := range Ages {
			if strings.HasPrefix(attrs, a+" ") {
				age = a
			}
		}
		require.NotEmpty(t, age, attrs)

		rest := strings.TrimPrefix(attrs, age+" ")
		var eth string
		for _, e := range Ethnicities {
			if strings.HasPrefix(rest, e+" ") {
				eth = e
			}
		}
		require.NotEmpty(t, eth, attrs)

		rest = strings.TrimPrefix(rest, eth+" ")
		require.True(t, strings.HasPrefix(rest, "female "), attrs)
		assert.Contains(t, FemaleFeatures, strings.TrimPrefix(rest, "female "))
	}
}

func TestMaleAttributesVaryAndExcludeHair(t *testing.T) {
	g := New(nil)
	seen := map[string]bool{}
	for range 50 {
		attrs := g.Attributes(models.Male)
		seen[attrs] = true
		assert.NotContains(t, attrs, "long hair")
		assert.NotContains(t, attrs, "short hair")
		assert.Contains(t, attrs, " male ")
	}
	assert.GreaterOrEqual(t, len(seen), 10)
}

func TestFemaleAttributesExcludeFacialHair(t *testing.T) {
	g := New(nil)
	for range 200 {
		attrs := g.Attributes(models.Female)
		assert.NotContains(t, attrs, "beard")
		assert.NotContains(t, attrs, "mustache")
	}
}

func TestAttributesUniform(t *testing.T) {
	const draws = 60000
	g := seeded(42)

	ethCounts := map[string]int{}
	featCounts := map[string]int{}
	for range draws {
		attrs := g.Attributes(models.Male)
		rest := attrs
		for _, a := range Ages {
			rest = strings.TrimPrefix(rest, a+" ")
		}
		for _, e := range Ethnicities {
			if strings.HasPrefix(rest, e+" male ") {
				ethCounts[e]++
			}
		}
		for _, f := range MaleFeatures {
			if strings.HasSuffix(attrs, " male "+f) {
				featCounts[f]++
			}
		}
	}

	// each bucket should land within 10% of its expected share
	wantEth := draws / len(Ethnicities)
	for _, e := range Ethnicities {
		assert.InDelta(t, wantEth, ethCounts[e], float64(wantEth)*0.1, e)
	}
	wantFeat := draws / len(MaleFeatures)
	for _, f := range MaleFeatures {
		assert.InDelta(t, wantFeat, featCounts[f], float64(wantFeat)*0.1, f)
	}
}
