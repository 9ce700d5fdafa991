package domain

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "flightsurety/pkg/domain-errors"
)

// Digest is a keccak-256 hash used to key ledger arenas.
type Digest [32]byte

// Keccak hashes the concatenation of parts.
func Keccak(parts ...[]byte) Digest {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// ParseDigest decodes a 0x-prefixed 32 byte hex digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil || len(b) != len(d) {
		return d, dErrors.New(dErrors.CodeInvalidInput, "digest must be 32 hex encoded bytes")
	}
	copy(d[:], b)
	return d, nil
}

func (d Digest) String() string {
	return "0x" + hex.EncodeToString(d[:])
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

// FlightKey identifies a flight by (airline, code, scheduled time).
func FlightKey(airline Address, code string, timestamp int64) Digest {
	return Keccak(airline.Bytes(), []byte(code), uint256(timestamp))
}

// RequestKey identifies a confirmation request within one shard.
func RequestKey(index uint8, airline Address, code string, timestamp int64) Digest {
	return Keccak([]byte{index}, airline.Bytes(), []byte(code), uint256(timestamp))
}

// PolicyKey identifies the policy a passenger holds on a flight.
func PolicyKey(flight Digest, passenger Address) Digest {
	return Keccak(flight[:], passenger.Bytes())
}

// ResponseKey identifies the bucket of reporters that answered status for a request.
func ResponseKey(request Digest, status uint8) Digest {
	return Keccak(request[:], []byte{status})
}

// uint256 left-pads a non-negative value to 32 big-endian bytes.
func uint256(v int64) []byte {
	out := make([]byte, 32)
	binary.BigEndian.PutUint64(out[24:], uint64(v))
	return out
}
