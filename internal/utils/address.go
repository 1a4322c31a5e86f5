package utils

import (
	"regexp"
	"strings"
)

// Solana addresses are base58 (no 0, O, I or l) and 32 to 44 characters long.
var solanaAddressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// IsValidTokenAddress reports whether s looks like a Solana mint address.
func IsValidTokenAddress(s string) bool {
	return solanaAddressPattern.MatchString(s)
}

// ValidateTokenAddress trims s and checks it against the Solana address shape.
// It returns the trimmed address, or a *ValidationError.
func ValidateTokenAddress(s string) (string, error) {
	address := strings.TrimSpace(s)
	if address == "" {
		return "", NewFieldValidationError("tokenIdentifier", "token address is required")
	}
	if !IsValidTokenAddress(address) {
		return "", NewFieldValidationError("tokenIdentifier", "not a valid Solana token address")
	}
	return address, nil
}
