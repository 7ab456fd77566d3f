package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Selection metrics
	PicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "randpick_picks_total",
			Help: "Total number of selections by mode",
		},
		[]string{"mode"},
	)

	NoResultTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "randpick_no_result_total",
			Help: "Selections that found an empty population, by mode",
		},
		[]string{"mode"},
	)

	PopulationSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "randpick_population_size",
			Help:    "Number of candidates considered per person selection",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// Roster metrics
	StudentsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "randpick_students_total",
			Help: "Number of students in the roster by state",
		},
		[]string{"state"},
	)

	GroupsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "randpick_groups_total",
			Help: "Number of groups in the roster",
		},
	)

	RosterReloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "randpick_roster_reload_duration_seconds",
			Help:    "Time taken to re-read the roster document",
			Buckets: prometheus.DefBuckets,
		},
	)

	// History metrics
	HistoryEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "randpick_history_entries",
			Help: "Number of history entries held in memory",
		},
	)

	HistoryPersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "randpick_history_persist_failures_total",
			Help: "History entries that could not be written to disk",
		},
	)

	// Storage metrics
	CorruptDocuments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "randpick_corrupt_documents_total",
			Help: "Documents that failed to parse and were reset, by document",
		},
		[]string{"document"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(PicksTotal)
	prometheus.MustRegister(NoResultTotal)
	prometheus.MustRegister(PopulationSize)
	prometheus.MustRegister(StudentsTotal)
	prometheus.MustRegister(GroupsTotal)
	prometheus.MustRegister(RosterReloadDuration)
	prometheus.MustRegister(HistoryEntries)
	prometheus.MustRegister(HistoryPersistFailures)
	prometheus.MustRegister(CorruptDocuments)
}

// WriteTextfile dumps every registered metric to path in the Prometheus text
// format, for pickup by a node exporter textfile collector
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
