package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizpot_rooms_created_total",
		Help: "Number of rooms created.",
	})

	RoomsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizpot_rooms_completed_total",
		Help: "Number of rooms that reached the completed state.",
	})

	RoomsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizpot_rooms_cancelled_total",
		Help: "Number of rooms cancelled before starting.",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quizpot_rooms",
		Help: "Number of rooms currently held by the registry.",
	})

	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizpot_ledger_transactions_total",
		Help: "Number of ledger transactions recorded, by kind.",
	}, []string{"kind"})
)
