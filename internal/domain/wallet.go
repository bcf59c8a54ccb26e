package domain

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrMissingWallet = errors.New("wallet address missing")
	ErrInvalidWallet = errors.New("wallet address invalid")
)

var walletPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Wallet is an EVM account address that passed validation. The zero value is
// not a usable wallet.
type Wallet struct {
	raw  string
	addr common.Address
}

// ParseWallet accepts "0x" followed by 40 hex digits in any letter case.
func ParseWallet(s string) (Wallet, error) {
	if s == "" {
		return Wallet{}, ErrMissingWallet
	}
	if !walletPattern.MatchString(s) {
		return Wallet{}, fmt.Errorf("%w: %q", ErrInvalidWallet, s)
	}
	return Wallet{raw: s, addr: common.HexToAddress(s)}, nil
}

// String returns the address exactly as it was parsed.
func (w Wallet) String() string {
	return w.raw
}

// Checksum returns the EIP-55 checksummed form.
func (w Wallet) Checksum() string {
	return w.addr.Hex()
}
