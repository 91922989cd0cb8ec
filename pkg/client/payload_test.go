package client

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ysakurai/bojstat-go/pkg/resume"
)

func encodeTestToken(t *testing.T, chunkIndex int) string {
	t.Helper()
	token, err := resume.Encode(resume.State{ChunkIndex: chunkIndex})
	require.NoError(t, err)
	return token
}

func TestPreferredResumeToken_NoCachedToken(t *testing.T) {
	caller := encodeTestToken(t, 2)
	require.Equal(t, caller, preferredResumeToken(caller, ""))
}

func TestPreferredResumeToken_NoCallerToken(t *testing.T) {
	cached := encodeTestToken(t, 2)
	require.Equal(t, cached, preferredResumeToken("", cached))
}

func TestPreferredResumeToken_HigherChunkIndexWinsRegardlessOfSource(t *testing.T) {
	lower := encodeTestToken(t, 1)
	higher := encodeTestToken(t, 3)

	require.Equal(t, higher, preferredResumeToken(lower, higher), "cached token with higher chunk_index should win over caller's")
	require.Equal(t, higher, preferredResumeToken(higher, lower), "caller token with higher chunk_index should win over cached")
}

func TestPreferredResumeToken_EquivalentChunkIndexPrefersCaller(t *testing.T) {
	caller := encodeTestToken(t, 2)
	cached := encodeTestToken(t, 2)

	require.Equal(t, caller, preferredResumeToken(caller, cached))
}
