package workshops

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// PincodeLength is the number of digits in a viewer pincode.
const PincodeLength = 6

// GeneratePincode returns a random numeric pincode for viewer access.
// crypto/rand, not math/rand: pincodes are the only credential viewers have.
func GeneratePincode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < PincodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate pincode: %w", err)
	}
	return fmt.Sprintf("%0*d", PincodeLength, n), nil
}
