package eth

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseChainID reads a chain id as reported by a wallet.
// Wallets report 0x-prefixed hex, and some pad it with leading zeros,
// which the strict hexutil decoder rejects. Plain base-10 is accepted too.
func ParseChainID(s string) (hexutil.Uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty chain id")
	}
	v := new(big.Int)
	var ok bool
	if rest, found := strings.CutPrefix(strings.ToLower(s), "0x"); found {
		_, ok = v.SetString(rest, 16)
	} else {
		_, ok = v.SetString(s, 10)
	}
	if !ok || v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("invalid chain id %q", s)
	}
	return hexutil.Uint64(v.Uint64()), nil
}

// FormatAddress shortens an address for display: the 0x prefix with five nibbles, then the last six nibbles.
func FormatAddress(addr common.Address) string {
	h := addr.Hex()
	return h[:7] + "..." + h[36:]
}
