package providers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorType
	}{
		{err: nil, want: ""},
		{err: errors.New("insufficient_quota for key"), want: ErrorQuota},
		{err: errors.New("you have no credit remaining"), want: ErrorQuota},
		{err: errors.New("429 too many requests"), want: ErrorRate},
		{err: errors.New("rate limit exceeded"), want: ErrorRate},
		{err: errors.New("prompt context too long"), want: ErrorContext},
		{err: errors.New("request timeout"), want: ErrorTransient},
		{err: errors.New("context deadline exceeded"), want: ErrorContext},
		{err: errors.New("service temporarily unavailable"), want: ErrorTransient},
		{err: fmt.Errorf("wrapped: %w", errors.New("model not found")), want: ErrorPermanent},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ClassifyError(c.err), "%v", c.err)
	}
}
