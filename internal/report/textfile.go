// Package report publishes hook outcomes for scraping.
//
// The hooks have no network surface, so instead of serving /metrics they
// drop a file into the node_exporter textfile collector directory after
// each run.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/krbops/renewhook/internal/hooks"
)

const textfileName = "renewhook.prom"

const (
	runResultName = "renewhook_run_result"
	lastRunName   = "renewhook_last_run_timestamp_seconds"
)

// Textfile renders run outcomes as Prometheus metrics in textfile
// collector format.
type Textfile struct {
	dir string
}

// NewTextfile writes into dir, typically
// /var/lib/node_exporter/textfile_collector.
func NewTextfile(dir string) *Textfile {
	return &Textfile{dir: dir}
}

// Write renders the outcomes and atomically replaces the collector file.
// Hooks absent from this run keep their series from the previous file, so
// a partial invocation does not break the other hooks' continuity.
func (t *Textfile) Write(outcomes []hooks.Outcome) error {
	reg := prometheus.NewRegistry()

	result := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: runResultName,
		Help: "Result of the last run per hook, 1 for the matching result label.",
	}, []string{"hook", "unit", "result"})
	finished := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: lastRunName,
		Help: "Unix time the hook last finished.",
	}, []string{"hook"})
	reg.MustRegister(result, finished)

	ran := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		ran[o.Hook] = true
		result.WithLabelValues(o.Hook, o.Unit, string(o.Result)).Set(1)
		finished.WithLabelValues(o.Hook).Set(float64(o.FinishedAt.Unix()))
	}
	t.carryOver(result, finished, ran)

	mfs, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	var buf bytes.Buffer
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}

	// Write-then-rename so the collector never reads a partial file.
	path := filepath.Join(t.dir, textfileName)
	tmp, err := os.CreateTemp(t.dir, textfileName+".*")
	if err != nil {
		return fmt.Errorf("create metrics textfile: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close metrics textfile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish metrics textfile: %w", err)
	}
	return nil
}

// carryOver re-applies series from the previous textfile for hooks not in
// this run. Best effort: a missing or malformed previous file just means
// starting fresh.
func (t *Textfile) carryOver(result, finished *prometheus.GaugeVec, ran map[string]bool) {
	f, err := os.Open(filepath.Join(t.dir, textfileName))
	if err != nil {
		return
	}
	defer f.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		return
	}

	if mf, ok := families[runResultName]; ok {
		for _, m := range mf.GetMetric() {
			hook := labelValue(m, "hook")
			if hook == "" || ran[hook] {
				continue
			}
			result.WithLabelValues(hook, labelValue(m, "unit"), labelValue(m, "result")).
				Set(m.GetGauge().GetValue())
		}
	}
	if mf, ok := families[lastRunName]; ok {
		for _, m := range mf.GetMetric() {
			hook := labelValue(m, "hook")
			if hook == "" || ran[hook] {
				continue
			}
			finished.WithLabelValues(hook).Set(m.GetGauge().GetValue())
		}
	}
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
