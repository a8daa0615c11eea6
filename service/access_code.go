package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"chiptable/models"
)

// generateAccessCode returns six upper-case hex characters
func generateAccessCode() (string, error) {
	buf := make([]byte, models.AccessCodeLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// accessCodeMatches requires an exact match, compared in constant time
func accessCodeMatches(expected *string, given string) bool {
	if expected == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*expected), []byte(given)) == 1
}
