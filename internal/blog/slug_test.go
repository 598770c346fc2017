package blog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Why LEGO Serious Play?  ", "why-lego-serious-play"},
		{"Already-Slugged", "already-slugged"},
		{"CamelCase & symbols!!", "camelcase-symbols"},
		{"---", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}
