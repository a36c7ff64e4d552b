package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	p, err := Build("corporate", "senior Hispanic female with glasses")
	require.NoError(t, err)

	tmpl, _ := Template("corporate")
	assert.Equal(t, tmpl+", senior Hispanic female with glasses", p)
}

func TestBuildUnknownStyle(t *testing.T) {
	_, err := Build("vaporwave", "x")

	var se *UnknownStyleError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "vaporwave", se.Style)
	assert.Contains(t, err.Error(), "photorealistic")
}

func TestStyles(t *testing.T) {
	styles := Styles()
	assert.Contains(t, styles, DefaultStyle)
	assert.True(t, sortedStrings(styles))
	for _, s := range styles {
		tmpl, err := Template(s)
		require.NoError(t, err)
		assert.False(t, strings.HasSuffix(tmpl, ","), s)
	}
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
