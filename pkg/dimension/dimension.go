// Package dimension picks a provider-supported image size inside a
// requested min/max range.
package dimension

import (
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"

	"github.com/pario-ai/badgeshot/pkg/models"
)

// Fallback is returned when a provider supports no sizes at all.
var Fallback = models.Dimension{Width: 1024, Height: 1024}

var specPattern = regexp.MustCompile(`^([1-9][0-9]*)x([1-9][0-9]*)$`)

// MalformedSpecError reports a size string that is not WIDTHxHEIGHT.
type MalformedSpecError struct {
	Input string
}

func (e *MalformedSpecError) Error() string {
	return fmt.Sprintf("invalid dimension format %q: expected WIDTHxHEIGHT with positive integers (e.g. 1024x1024)", e.Input)
}

// Parse converts "WxH" into a Dimension.
func Parse(spec string) (models.Dimension, error) {
	m := specPattern.FindStringSubmatch(spec)
	if m == nil {
		return models.Dimension{}, &MalformedSpecError{Input: spec}
	}
	w, err := strconv.Atoi(m[1])
	if err != nil {
		return models.Dimension{}, &MalformedSpecError{Input: spec}
	}
	h, err := strconv.Atoi(m[2])
	if err != nil {
		return models.Dimension{}, &MalformedSpecError{Input: spec}
	}
	return models.Dimension{Width: w, Height: h}, nil
}

// Select parses both bounds and picks a supported size.
func Select(minSpec, maxSpec string, supported []models.Dimension, rng *rand.Rand) (models.Dimension, error) {
	lo, err := Parse(minSpec)
	if err != nil {
		return models.Dimension{}, err
	}
	hi, err := Parse(maxSpec)
	if err != nil {
		return models.Dimension{}, err
	}
	return Pick(lo, hi, supported, rng), nil
}

// Pick draws a random width and height inside [lo, hi] and returns the
// portrait-or-square supported size whose area is closest to the draw.
// Ties go to the earliest entry in supported. With no portrait entries it
// returns supported[0], and Fallback when supported is empty.
func Pick(lo, hi models.Dimension, supported []models.Dimension, rng *rand.Rand) models.Dimension {
	if len(supported) == 0 {
		return Fallback
	}

	candidates := portrait(supported)
	if len(candidates) == 0 {
		return supported[0]
	}

	// Areas are compared as float64: a valid bound like 9999999999x9999999999
	// overflows int.
	target := area(between(rng, lo.Width, hi.Width), between(rng, lo.Height, hi.Height))

	best := candidates[0]
	bestDiff := math.Abs(area(best.Width, best.Height) - target)
	for _, d := range candidates[1:] {
		if diff := math.Abs(area(d.Width, d.Height) - target); diff < bestDiff {
			best, bestDiff = d, diff
		}
	}
	return best
}

func area(w, h int) float64 {
	return float64(w) * float64(h)
}

// portrait filters supported down to portrait-or-square sizes, keeping order.
func portrait(supported []models.Dimension) []models.Dimension {
	var out []models.Dimension
	for _, d := range supported {
		if d.IsPortrait() {
			out = append(out, d)
		}
	}
	return out
}

// between returns a uniform integer in [a, b]; reversed bounds are swapped.
func between(rng *rand.Rand, a, b int) int {
	if b < a {
		a, b = b, a
	}
	return a + rng.IntN(b-a+1)
}
