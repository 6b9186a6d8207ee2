package session

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Status is the lifecycle state of a synchronizer.
type Status int

const (
	StatusUninitialized Status = iota
	StatusDetecting
	StatusNoProvider
	StatusConnectedEmpty
	StatusConnectedWithAccounts
)

var statusNames = map[Status]string{
	StatusUninitialized:         "uninitialized",
	StatusDetecting:             "detecting",
	StatusNoProvider:            "no-provider",
	StatusConnectedEmpty:        "connected-empty",
	StatusConnectedWithAccounts: "connected-with-accounts",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for k, v := range statusNames {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// HasProvider reports whether a wallet provider is mounted.
func (s Status) HasProvider() bool {
	return s == StatusConnectedEmpty || s == StatusConnectedWithAccounts
}

// Session is the wallet state as last reported by the provider.
// An empty account list means the wallet is disconnected, and the balance is then empty.
type Session struct {
	Accounts   []common.Address `json:"accounts"`
	Balance    string           `json:"balance"`
	BalanceWei *hexutil.Big     `json:"balanceWei,omitempty"`
	ChainID    hexutil.Uint64   `json:"chainId"`
}

func (s Session) Connected() bool {
	return len(s.Accounts) > 0
}

// Account returns the first exposed account, which the wallet uses as signer.
func (s Session) Account() (common.Address, bool) {
	if len(s.Accounts) == 0 {
		return common.Address{}, false
	}
	return s.Accounts[0], true
}

func (s Session) Status() Status {
	if s.Connected() {
		return StatusConnectedWithAccounts
	}
	return StatusConnectedEmpty
}

func (s Session) clone() Session {
	out := s
	out.Accounts = append(make([]common.Address, 0, len(s.Accounts)), s.Accounts...)
	if s.BalanceWei != nil {
		out.BalanceWei = (*hexutil.Big)(new(big.Int).Set(s.BalanceWei.ToInt()))
	}
	return out
}
