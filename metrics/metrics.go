package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/testops/spec-harness/types"
)

const (
	MetricsNamespace = "harness"
)

var (
	Debug                bool = true
	validStatuses             = []types.Status{types.StatusPassed, types.StatusPending, types.StatusFailed}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	specsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "specs_total",
		Help:      "Count of completed specs",
	}, []string{
		"run_id",
		"file",
		"name",
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Outcome of spec runs",
	}, []string{
		"run_id",
		"result",
	})

	runSpecsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_specs_total",
		Help:      "Total number of specs in a run",
	}, []string{
		"run_id",
	})

	runSpecsPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_specs_passed",
		Help:      "Number of passed specs in a run",
	}, []string{
		"run_id",
	})

	runSpecsPending = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_specs_pending",
		Help:      "Number of pending specs in a run",
	}, []string{
		"run_id",
	})

	runSpecsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_specs_failed",
		Help:      "Number of failed specs in a run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall clock duration of spec runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordSpec counts one completed spec by its terminal status.
func RecordSpec(runID string, file string, specName string, result types.Status) {
	if !isValidStatus(result) {
		log.Error("RecordSpec - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "specs_total",
			"run_id", runID,
			"file", file,
			"spec", specName,
			"result", result)
	}
	specsTotal.WithLabelValues(runID, file, specName, string(result)).Inc()
}

// RecordRun publishes the aggregate outcome of a completed run.
func RecordRun(
	runID string,
	outcome types.RunOutcome,
	stats types.ResultStats,
	duration time.Duration,
) {
	runResults.WithLabelValues(runID, outcome.String()).Set(1)
	runSpecsTotal.WithLabelValues(runID).Add(float64(stats.Total))
	runSpecsPassed.WithLabelValues(runID).Add(float64(stats.Passed))
	runSpecsPending.WithLabelValues(runID).Add(float64(stats.Pending))
	runSpecsFailed.WithLabelValues(runID).Add(float64(stats.Failed))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidStatus(result types.Status) bool {
	return slices.Contains(validStatuses, result)
}
