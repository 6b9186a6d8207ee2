package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/tokenfaucet/faucet-connector/fc-service/eth"
	fcmetrics "github.com/tokenfaucet/faucet-connector/fc-service/metrics"
)

const Namespace = "faucet_connector"

type Metrics struct {
	ns       string
	registry *prometheus.Registry
	factory  fcmetrics.Factory

	sessionUpdates *prometheus.CounterVec
	balance        *prometheus.GaugeVec
	providerEvents *prometheus.CounterVec

	refreshes     *prometheus.CounterVec
	connects      *prometheus.CounterVec
	faucetActions *prometheus.CounterVec

	actionDuration *prometheus.HistogramVec

	info prometheus.GaugeVec
	up   prometheus.Gauge
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics(procName string) *Metrics {
	return newMetrics(procName, fcmetrics.NewRegistry())
}

func newMetrics(procName string, registry *prometheus.Registry) *Metrics {
	if procName == "" {
		procName = "default"
	}
	ns := Namespace + "_" + procName

	factory := fcmetrics.With(registry)
	return &Metrics{
		ns:       ns,
		registry: registry,
		factory:  factory,

		info: *factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "info",
			Help:      "Pseudo-metric tracking version and config info",
		}, []string{
			"version",
		}),
		up: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "up",
			Help:      "1 if the connector has finished starting up",
		}),

		sessionUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "session_updates_total",
			Help:      "Count of wallet session replacements, by resulting status",
		}, []string{"status"}),
		balance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "session_balance_wei",
			Help:      "Native balance of the connected account, in wei",
		}, []string{"chain"}),
		providerEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "provider_events_total",
			Help:      "Count of notifications delivered by the wallet provider",
		}, []string{"event"}),

		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "session_refreshes_total",
			Help:      "Count of session refreshes",
		}, []string{"err"}),
		connects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "connects_total",
			Help:      "Count of connect attempts, by target chain",
		}, []string{"chain", "err"}),
		faucetActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "faucet_actions_total",
			Help:      "Count of faucet actions",
		}, []string{"action", "token", "err"}),

		actionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "action_duration_seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			Help:      "Duration of wallet actions, including user prompts",
		}, []string{"action"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Document() []fcmetrics.DocumentedMetric {
	return m.factory.Document()
}

// RecordInfo sets a pseudo-metric that contains versioning and config info.
func (m *Metrics) RecordInfo(version string) {
	m.info.WithLabelValues(version).Set(1)
}

// RecordUp sets the up metric to 1.
func (m *Metrics) RecordUp() {
	m.up.Set(1)
}

func (m *Metrics) RecordSession(status string, chainID hexutil.Uint64, balance eth.ETH) {
	m.sessionUpdates.WithLabelValues(status).Inc()
	m.balance.WithLabelValues(chainID.String()).Set(balance.WeiFloat())
}

func (m *Metrics) RecordProviderEvent(event string) {
	m.providerEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordRefresh() (onDone func(err error)) {
	timer := prometheus.NewTimer(m.actionDuration.WithLabelValues("refresh"))
	return func(err error) {
		timer.ObserveDuration()
		m.refreshes.WithLabelValues(errLabel(err)).Inc()
	}
}

func (m *Metrics) RecordConnect(chainID hexutil.Uint64) (onDone func(err error)) {
	timer := prometheus.NewTimer(m.actionDuration.WithLabelValues("connect"))
	return func(err error) {
		timer.ObserveDuration()
		m.connects.WithLabelValues(chainID.String(), errLabel(err)).Inc()
	}
}

func (m *Metrics) RecordFaucetAction(action string, token common.Address) (onDone func(err error)) {
	timer := prometheus.NewTimer(m.actionDuration.WithLabelValues(action))
	return func(err error) {
		timer.ObserveDuration()
		m.faucetActions.WithLabelValues(action, token.Hex(), errLabel(err)).Inc()
	}
}

func errLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
