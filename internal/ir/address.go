package ir

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address is a 20-byte account address in 0x-prefixed hex form.
type Address string

// Valid reports whether the address is a well-formed 20-byte hex address.
func (a Address) Valid() bool {
	s := string(a)
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// NormalizeHex lower-cases a hex string and guarantees a 0x prefix.
// Bytecode equality during the idempotency check is decided on the
// normalized form; no semantic comparison is performed.
func NormalizeHex(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return s
}

// Keccak256Hex returns the 0x-prefixed Keccak-256 digest of data.
func Keccak256Hex(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// AddressFromDigest derives an address from the trailing 20 bytes of a
// Keccak-256 digest over data.
func AddressFromDigest(data []byte) Address {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	sum := h.Sum(nil)
	return Address("0x" + hex.EncodeToString(sum[len(sum)-20:]))
}
