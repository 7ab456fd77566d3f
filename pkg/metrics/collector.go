package metrics

import (
	"github.com/cuemby/randpick/pkg/types"
)

// RosterSource is the part of the roster store the collector reads
type RosterSource interface {
	Students() []types.Student
	Groups() []types.Group
}

// HistorySource is the part of the history log the collector reads
type HistorySource interface {
	Len() int
}

// Collector refreshes the gauges from the live stores
type Collector struct {
	roster  RosterSource
	history HistorySource
}

// NewCollector creates a new metrics collector
func NewCollector(roster RosterSource, history HistorySource) *Collector {
	return &Collector{
		roster:  roster,
		history: history,
	}
}

// Collect updates every gauge once
func (c *Collector) Collect() {
	if c.roster != nil {
		c.collectRosterMetrics()
	}
	if c.history != nil {
		HistoryEntries.Set(float64(c.history.Len()))
	}
}

func (c *Collector) collectRosterMetrics() {
	active, inactive := 0, 0
	for _, s := range c.roster.Students() {
		if s.Active {
			active++
		} else {
			inactive++
		}
	}

	StudentsTotal.WithLabelValues("active").Set(float64(active))
	StudentsTotal.WithLabelValues("inactive").Set(float64(inactive))
	GroupsTotal.Set(float64(len(c.roster.Groups())))
}
