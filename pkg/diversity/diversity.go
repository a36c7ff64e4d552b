// Package diversity builds randomized subject descriptions for badge photos.
package diversity

import (
	"math/rand/v2"
	"strings"

	"github.com/pario-ai/badgeshot/pkg/models"
)

var (
	Ages        = []string{"young adult", "middle-aged", "senior"}
	Ethnicities = []string{"Asian", "Black", "Caucasian", "Hispanic", "Middle Eastern", "South Asian"}

	MaleFeatures   = []string{"with glasses", "without glasses", "with beard", "clean-shaven", "with mustache"}
	FemaleFeatures = []string{"with glasses", "without glasses", "with long hair", "with short hair"}
)

// Generator draws attribute combinations from its random source.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator. A nil rng uses a randomly seeded source.
func New(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{rng: rng}
}

// Attributes returns "age ethnicity gender feature" with each part drawn
// uniformly and independently.
func (g *Generator) Attributes(gender models.Gender) string {
	features := FemaleFeatures
	if gender == models.Male {
		features = MaleFeatures
	}
	return strings.Join([]string{
		pick(g.rng, Ages),
		pick(g.rng, Ethnicities),
		string(gender),
		pick(g.rng, features),
	}, " ")
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.IntN(len(options))]
}
