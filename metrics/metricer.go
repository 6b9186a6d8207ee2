package metrics

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/tokenfaucet/faucet-connector/fc-service/eth"
)

type Metricer interface {
	RecordInfo(version string)
	RecordUp()

	// RecordSession tracks a session replacement. The balance is zero for a disconnected session.
	RecordSession(status string, chainID hexutil.Uint64, balance eth.ETH)
	RecordProviderEvent(event string)

	RecordRefresh() (onDone func(err error))
	RecordConnect(chainID hexutil.Uint64) (onDone func(err error))
	RecordFaucetAction(action string, token common.Address) (onDone func(err error))
}
