// Package pairid parses trading-pair identifiers of the form "BASE_QUOTE".
package pairid

import (
	"fmt"
	"strings"

	"github.com/zkclob/engine/pkg/xerrors"
)

// Split parses a pair id into its base and quote token ids.
// A pair id must contain exactly one '_' separator with non-empty sides.
func Split(pairID string) (base, quote string, err error) {
	parts := strings.Split(pairID, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q, want BASE_QUOTE", xerrors.ErrMalformedPair, pairID)
	}
	return parts[0], parts[1], nil
}
