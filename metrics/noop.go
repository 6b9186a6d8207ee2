package metrics

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/tokenfaucet/faucet-connector/fc-service/eth"
)

type NoopMetrics struct{}

func (n NoopMetrics) RecordInfo(version string) {}

func (n NoopMetrics) RecordUp() {}

func (n NoopMetrics) RecordSession(status string, chainID hexutil.Uint64, balance eth.ETH) {}

func (n NoopMetrics) RecordProviderEvent(event string) {}

func (n NoopMetrics) RecordRefresh() (onDone func(err error)) {
	return func(err error) {}
}

func (n NoopMetrics) RecordConnect(chainID hexutil.Uint64) (onDone func(err error)) {
	return func(err error) {}
}

func (n NoopMetrics) RecordFaucetAction(action string, token common.Address) (onDone func(err error)) {
	return func(err error) {}
}

var _ Metricer = NoopMetrics{}
