// Package metrics holds the Prometheus collectors of the campaign engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of campaign runs.
const (
	OutcomeSuccess       = "success"
	OutcomeMissingColumn = "missing_column"
	OutcomeError         = "error"
)

// Restriction lookup sources.
const (
	SourceCache    = "cache"
	SourceDB       = "db"
	SourceFallback = "fallback"
)

var (
	// Campaign runs by type and outcome
	CampaignRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campaign_runs_total",
		Help: "Total number of campaign runs",
	}, []string{"campaign_type", "outcome"})

	// Rows written to campaign files
	CampaignRowsOutput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campaign_rows_output_total",
		Help: "Total number of rows written to campaign files",
	}, []string{"campaign_type"})

	CampaignRunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campaign_run_duration_seconds",
		Help:    "Duration of campaign runs, from parsed table to exported files",
		Buckets: prometheus.DefBuckets,
	}, []string{"campaign_type"})

	RestrictionLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restriction_lookups_total",
		Help: "Restriction lookups by the source that answered them",
	}, []string{"source"})
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Later calls are no-ops.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CampaignRuns,
			CampaignRowsOutput,
			CampaignRunDuration,
			RestrictionLookups,
		)
	})
}
