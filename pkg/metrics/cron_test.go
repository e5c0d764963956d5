package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "order_expiry"
	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m.ObserveRun(job, finished, 250*time.Millisecond, nil)
	m.ObserveRun(job, finished.Add(time.Minute), time.Second, errors.New("db down"))
	m.IncLockSkipped()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for outcome, want := range map[string]float64{OutcomeOK: 1, OutcomeError: 1} {
		got, err := fetchCounterValue(mfs, "pos_cron_job_runs_total", "outcome", outcome)
		if err != nil {
			t.Fatalf("fetch %s: %v", outcome, err)
		}
		if got != want {
			t.Fatalf("expected %s=%v, got %v", outcome, want, got)
		}
	}

	if got, err := fetchHistogramSum(mfs, "pos_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got != 1.25 {
		t.Fatalf("expected duration sum 1.25, got %f", got)
	}

	// a failed run must not move the freshness gauge
	gauge := findMetricFamily(mfs, "pos_cron_job_last_success_timestamp_seconds")
	if gauge == nil || gauge.GetMetric()[0].GetGauge().GetValue() != float64(finished.Unix()) {
		t.Fatalf("unexpected last success gauge %v", gauge)
	}

	skips := findMetricFamily(mfs, "pos_cron_lock_skipped_total")
	if skips == nil || skips.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("unexpected lock skip counter %v", skips)
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("job", time.Now(), time.Second, nil)
	m.IncLockSkipped()

	NewCronJobMetrics(nil).ObserveRun("job", time.Now(), time.Second, nil)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
