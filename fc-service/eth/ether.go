package eth

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/ethereum/go-ethereum/params"
)

// NativeDecimals is the number of decimals of the native currency on EVM chains.
const NativeDecimals = 18

// BalancePlaces is the number of fractional digits a balance is displayed with.
const BalancePlaces = 2

// ETH is an amount of native currency, expressed in wei.
// Values are passed flat, and operations return new values instead of mutating.
type ETH uint256.Int

var ZeroWei = WeiU64(0)

func WeiU64(wei uint64) ETH {
	return ETH(*uint256.NewInt(wei))
}

// Ether returns the given number of whole ether.
func Ether(v uint64) ETH {
	var out uint256.Int
	out.Mul(uint256.NewInt(v), uint256.NewInt(params.Ether))
	return ETH(out)
}

// WeiBig converts a big integer into ETH.
// Negative values clamp to zero, and overflows clamp to the max uint256.
func WeiBig(v *big.Int) ETH {
	if v == nil || v.Sign() <= 0 {
		return ZeroWei
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return ETH(*new(uint256.Int).SetAllOne())
	}
	return ETH(*out)
}

func (e ETH) ToBig() *big.Int {
	return (*uint256.Int)(&e).ToBig()
}

// Decimal returns the amount, in wei, in base-10.
func (e ETH) Decimal() string {
	return (*uint256.Int)(&e).Dec()
}

// Hex returns the amount, in wei, as 0x-prefixed hex.
func (e ETH) Hex() string {
	return (*uint256.Int)(&e).Hex()
}

// WeiFloat approximates the amount in wei. Precision is lost for large values.
func (e ETH) WeiFloat() float64 {
	return (*uint256.Int)(&e).Float64()
}

// Balance formats the amount as whole units of the native currency, with BalancePlaces fractional digits.
func (e ETH) Balance() string {
	return FormatUnits(e.ToBig(), NativeDecimals, BalancePlaces)
}

func (e ETH) String() string {
	return e.Balance() + " ether"
}

// FormatUnits shifts a raw integer amount by the token decimals,
// and renders it rounded to the given number of fractional digits.
func FormatUnits(raw *big.Int, decimals int32, places int32) string {
	if raw == nil {
		raw = new(big.Int)
	}
	return decimal.NewFromBigInt(raw, -decimals).StringFixed(places)
}

// FormatBalance renders a wei amount the way the wallet session displays it.
func FormatBalance(wei *big.Int) string {
	return FormatUnits(wei, NativeDecimals, BalancePlaces)
}
