package domain

import (
	"encoding/hex"
	"strings"

	dErrors "flightsurety/pkg/domain-errors"
)

// Address identifies an account on the ledger: an airline, a passenger, a
// reporter or a relaying client application.
// Invariant: "0x" followed by 40 lowercase hex characters.
//
// Usage: construct via ParseAddress at trust boundaries; direct casting
// bypasses validation.
type Address string

const addressHexLen = 40

// ParseAddress validates and normalizes an account address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	body, ok := strings.CutPrefix(strings.ToLower(s), "0x")
	if !ok || len(body) != addressHexLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 0x followed by 40 hex characters")
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be hex encoded")
	}
	return Address("0x" + body), nil
}

// AddressFromSeed derives a deterministic address from a label. Used by the
// reporter simulator and tests to name accounts.
func AddressFromSeed(seed string) Address {
	sum := Keccak([]byte(seed))
	return Address("0x" + hex.EncodeToString(sum[12:]))
}

// Bytes returns the 20 raw address bytes, or nil for an address that was not
// produced by ParseAddress.
func (a Address) Bytes() []byte {
	b, err := hex.DecodeString(strings.TrimPrefix(string(a), "0x"))
	if err != nil || len(b) != addressHexLen/2 {
		return nil
	}
	return b
}

func (a Address) IsZero() bool {
	return a == ""
}

func (a Address) String() string {
	return string(a)
}
