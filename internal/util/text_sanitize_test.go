package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello world", want: "hello world"},
		{name: "nul bytes", in: "hel\x00lo", want: "hello"},
		{name: "keeps whitespace", in: "a\tb\nc", want: "a\tb\nc"},
		{name: "drops controls", in: "a\x01\x02b", want: "ab"},
		{name: "trims", in: "  padded  ", want: "padded"},
		{name: "empty", in: "", want: ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, SanitizeText(c.in))
		})
	}
}
