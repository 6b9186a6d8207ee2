package provider

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ContractCaller runs read-only contract calls through the wallet, against its active chain.
type ContractCaller struct {
	p Provider
}

var _ bind.ContractCaller = (*ContractCaller)(nil)

func NewContractCaller(p Provider) *ContractCaller {
	return &ContractCaller{p: p}
}

func (c *ContractCaller) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	var code hexutil.Bytes
	if err := c.p.Request(ctx, &code, "eth_getCode", contract, blockArg(blockNumber)); err != nil {
		return nil, err
	}
	return code, nil
}

func (c *ContractCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	args := TransactionArgs{To: call.To, Data: call.Data}
	if call.From != (common.Address{}) {
		from := call.From
		args.From = &from
	}
	if call.Value != nil {
		args.Value = (*hexutil.Big)(call.Value)
	}
	if call.Gas != 0 {
		gas := hexutil.Uint64(call.Gas)
		args.Gas = &gas
	}
	var out hexutil.Bytes
	if err := c.p.Request(ctx, &out, "eth_call", args, blockArg(blockNumber)); err != nil {
		return nil, err
	}
	return out, nil
}

func blockArg(n *big.Int) string {
	if n == nil {
		return "latest"
	}
	return hexutil.EncodeBig(n)
}
