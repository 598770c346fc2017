package workshops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePincode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GeneratePincode()
		require.NoError(t, err)
		require.Len(t, code, PincodeLength)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "non-digit %q in pincode %s", r, code)
		}
		seen[code] = true
	}
	// 50 draws from a million values colliding down to a handful would mean a
	// broken generator.
	assert.Greater(t, len(seen), 40)
}
