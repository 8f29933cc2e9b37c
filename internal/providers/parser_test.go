package providers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("groq|openai:primary| mock ")
	require.Len(t, refs, 3)
	require.Equal(t, "groq", refs[0].Name)
	require.Equal(t, "", refs[0].KeyAlias)
	require.Equal(t, "openai", refs[1].Name)
	require.Equal(t, "primary", refs[1].KeyAlias)
	require.Equal(t, "mock", refs[2].Name)
}

func TestParseProviderListEmptyDefaultsToMock(t *testing.T) {
	refs := ParseProviderList("  | |")
	require.Len(t, refs, 1)
	require.Equal(t, "mock", refs[0].Name)
}
