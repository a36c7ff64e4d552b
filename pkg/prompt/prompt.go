// Package prompt holds the art-style templates that open every image prompt.
package prompt

import (
	"fmt"
	"sort"
)

// DefaultStyle is used when no style is configured.
const DefaultStyle = "photorealistic"

var templates = map[string]string{
	"photorealistic": "Professional employee badge photo, photorealistic headshot, neutral background, soft studio lighting, looking at camera, shoulders visible",
	"corporate":      "Corporate ID badge portrait, business attire, plain light gray background, even lighting, friendly neutral expression, centered head and shoulders",
	"casual":         "Casual workplace badge photo, smart casual clothing, bright office background slightly blurred, natural light, relaxed smile",
	"studio":         "High-end studio portrait for an employee badge, seamless white backdrop, three-point lighting, sharp focus on the face",
	"illustrated":    "Clean digital illustration of an employee badge portrait, flat colors, simple background, head and shoulders",
	"cartoon":        "Friendly cartoon avatar for an employee badge, bold outlines, pastel background, head and shoulders",
}

// UnknownStyleError names a style with no template.
type UnknownStyleError struct {
	Style string
}

func (e *UnknownStyleError) Error() string {
	return fmt.Sprintf("unknown style %q (available: %v)", e.Style, Styles())
}

// Template returns the template text for style.
func Template(style string) (string, error) {
	t, ok := templates[style]
	if !ok {
		return "", &UnknownStyleError{Style: style}
	}
	return t, nil
}

// Build joins the style template and subject attributes with ", ".
func Build(style, attributes string) (string, error) {
	t, err := Template(style)
	if err != nil {
		return "", err
	}
	return t + ", " + attributes, nil
}

// Styles returns every style name, sorted.
func Styles() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
