package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"chiptable/models"
)

var outcomeRange = big.NewInt(models.MaxOutcome - models.MinOutcome + 1)

// CryptoOutcomeDrawer draws outcomes from the operating system CSPRNG
type CryptoOutcomeDrawer struct{}

// Draw returns a uniformly distributed value in [0, 99]
func (CryptoOutcomeDrawer) Draw() (int, error) {
	n, err := rand.Int(rand.Reader, outcomeRange)
	if err != nil {
		return 0, fmt.Errorf("failed to draw outcome: %w", err)
	}
	return models.MinOutcome + int(n.Int64()), nil
}

// FixedOutcomeDrawer always draws the same value
type FixedOutcomeDrawer int

// Draw returns the fixed value
func (f FixedOutcomeDrawer) Draw() (int, error) {
	return int(f), nil
}
