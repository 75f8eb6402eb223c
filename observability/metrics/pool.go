package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics groups the prometheus collectors tracking pool accounting
// activity. All observers are nil-safe so callers can run without metrics.
type PoolMetrics struct {
	profitDistributed prometheus.Counter
	lossDistributed   prometheus.Counter
	lossRecovered     prometheus.Counter
	deposits          prometheus.Counter
	withdrawals       prometheus.Counter
	unauthorized      *prometheus.CounterVec
	totalBalance      prometheus.Gauge
	trancheAssets     *prometheus.GaugeVec
}

var (
	poolOnce     sync.Once
	poolRegistry *PoolMetrics
)

// Pool returns the process-wide pool metrics, registering the collectors on
// first use.
func Pool() *PoolMetrics {
	poolOnce.Do(func() {
		poolRegistry = &PoolMetrics{
			profitDistributed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "pool_profit_distributed_total",
				Help: "Cumulative profit routed through the tranches policy.",
			}),
			lossDistributed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "pool_loss_distributed_total",
				Help: "Cumulative loss absorbed by the tranches.",
			}),
			lossRecovered: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "pool_loss_recovered_total",
				Help: "Cumulative loss recovery applied to the tranches.",
			}),
			deposits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "poolsafe_deposits_total",
				Help: "Count of custodial deposits recorded by the safe.",
			}),
			withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "poolsafe_withdrawals_total",
				Help: "Count of custodial withdrawals recorded by the safe.",
			}),
			unauthorized: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "poolsafe_unauthorized_total",
				Help: "Count of rejected calls by operation.",
			}, []string{"op"}),
			totalBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "poolsafe_total_balance",
				Help: "Custodial balance currently held by the safe.",
			}),
			trancheAssets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "pool_tranche_assets",
				Help: "Current asset value per tranche.",
			}, []string{"tranche"}),
		}
		prometheus.MustRegister(
			poolRegistry.profitDistributed,
			poolRegistry.lossDistributed,
			poolRegistry.lossRecovered,
			poolRegistry.deposits,
			poolRegistry.withdrawals,
			poolRegistry.unauthorized,
			poolRegistry.totalBalance,
			poolRegistry.trancheAssets,
		)
	})
	return poolRegistry
}

// ObserveProfit records a profit distribution.
func (m *PoolMetrics) ObserveProfit(amount *big.Int) {
	if m == nil {
		return
	}
	m.profitDistributed.Add(approx(amount))
}

// ObserveLoss records a loss distribution.
func (m *PoolMetrics) ObserveLoss(amount *big.Int) {
	if m == nil {
		return
	}
	m.lossDistributed.Add(approx(amount))
}

// ObserveRecovery records a loss recovery distribution.
func (m *PoolMetrics) ObserveRecovery(amount *big.Int) {
	if m == nil {
		return
	}
	m.lossRecovered.Add(approx(amount))
}

// ObserveDeposit records a custodial deposit.
func (m *PoolMetrics) ObserveDeposit() {
	if m == nil {
		return
	}
	m.deposits.Inc()
}

// ObserveWithdrawal records a custodial withdrawal.
func (m *PoolMetrics) ObserveWithdrawal() {
	if m == nil {
		return
	}
	m.withdrawals.Inc()
}

// ObserveUnauthorized records a rejected call for the named operation.
func (m *PoolMetrics) ObserveUnauthorized(op string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.unauthorized.WithLabelValues(op).Inc()
}

// ObserveTotalBalance records the safe's custodial balance.
func (m *PoolMetrics) ObserveTotalBalance(balance *big.Int) {
	if m == nil {
		return
	}
	m.totalBalance.Set(approx(balance))
}

// ObserveTrancheAssets records the current per-tranche asset values. The
// assets argument is the senior-first pair used across the accounting core.
func (m *PoolMetrics) ObserveTrancheAssets(assets [2]*big.Int) {
	if m == nil {
		return
	}
	m.trancheAssets.WithLabelValues("senior").Set(approx(assets[0]))
	m.trancheAssets.WithLabelValues("junior").Set(approx(assets[1]))
}

// approx converts an exact integer amount into the lossy float prometheus
// needs. Accounting correctness never depends on these values.
func approx(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(amount).Float64()
	return f
}
