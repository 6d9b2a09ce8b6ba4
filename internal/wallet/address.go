// Package wallet is the boundary to the chain identity provider. The engine
// only needs to know that a bettor or owner string is a well-formed address;
// signatures and balances belong to the chain collaborator.
package wallet

import (
	"github.com/ethereum/go-ethereum/common"
)

// IsValidAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// Normalize returns the EIP-55 checksummed form of an address so the same
// identity always stores and compares identically.
func Normalize(s string) string {
	return common.HexToAddress(s).Hex()
}
