package metrics

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"chiptable/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var (
	tableOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chiptable_table_operations_total",
			Help: "Table operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	tableOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chiptable_table_operation_duration_ms",
			Help:    "Table operation duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"operation", "result"},
	)

	settlementTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chiptable_settlements_total",
			Help: "Table settlements by result",
		},
		[]string{"result"},
	)

	settlementWinners = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chiptable_settlement_winners_total",
			Help: "Winning wager rows by tier",
		},
		[]string{"tier"},
	)

	chipsPaid = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chiptable_settlement_chips_total",
			Help: "Chips moved by settlements, split into distributed, commission and house",
		},
		[]string{"destination"},
	)

	walletOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chiptable_wallet_operations_total",
			Help: "Wallet operations by operation and result",
		},
		[]string{"operation", "result"},
	)
)

// ResultLabel maps an operation error onto a small fixed label set
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, models.ErrCapacity):
		return "capacity"
	case errors.Is(err, models.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, models.ErrDuplicateWager):
		return "duplicate"
	case errors.Is(err, models.ErrInvalidAccessCode), errors.Is(err, models.ErrForbidden):
		return "denied"
	case errors.Is(err, models.ErrConcurrencyConflict):
		return "conflict"
	default:
		return "error"
	}
}

// RecordTableOperation records a create, join or guess call
func RecordTableOperation(operation string, err error, started time.Time) {
	op := strings.ToLower(operation)
	res := ResultLabel(err)
	tableOpTotal.WithLabelValues(op, res).Inc()
	tableOpDuration.WithLabelValues(op, res).Observe(float64(time.Since(started).Milliseconds()))
}

// RecordSettlement records one Evaluate call. result is nil when it failed.
func RecordSettlement(result *models.SettlementResult, err error) {
	settlementTotal.WithLabelValues(ResultLabel(err)).Inc()
	if result == nil {
		return
	}
	settlementWinners.WithLabelValues(string(models.TierExact)).Add(float64(result.Tiers.Exact))
	settlementWinners.WithLabelValues(string(models.TierClose)).Add(float64(result.Tiers.Close))
	settlementWinners.WithLabelValues(string(models.TierCondition)).Add(float64(result.Tiers.Condition))

	addChips("distributed", result.DistributedAmount)
	addChips("commission", result.CommissionAmount)
	// House shortfalls are not subtracted; counters only grow
	addChips("house", result.HouseAmount)
}

// RecordWalletOperation records a buy, sell, review or bonus call
func RecordWalletOperation(operation string, err error) {
	walletOpTotal.WithLabelValues(strings.ToLower(operation), ResultLabel(err)).Inc()
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

func addChips(destination string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	chipsPaid.WithLabelValues(destination).Add(amount.InexactFloat64())
}
