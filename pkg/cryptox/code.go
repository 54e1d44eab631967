package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

// GenerateNumericCode returns a uniformly random decimal code with exactly
// the given number of digits and no leading zero, i.e. a value drawn from
// [10^(digits-1), 10^digits - 1].
func GenerateNumericCode(digits int) (string, error) {
	if digits < 1 || digits > 18 {
		return "", fmt.Errorf("cryptox: code length must be between 1 and 18, got %d", digits)
	}

	low := int64(1)
	for range digits - 1 {
		low *= 10
	}
	high := low * 10

	// rand.Int is uniform over [0, high-low)
	n, err := rand.Int(rand.Reader, big.NewInt(high-low))
	if err != nil {
		return "", fmt.Errorf("cryptox: generate code: %w", err)
	}

	return strconv.FormatInt(low+n.Int64(), 10), nil
}
