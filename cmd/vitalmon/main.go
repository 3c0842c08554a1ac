package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	labelStyle   = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("8"))
	normalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dangerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "watch":
		err = watchCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("vitalmon %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to configuration file (defaults to the synthetic source)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		flow *vitalmon.Flow
		err  error
	)
	if *cfgPath == "" {
		flow, err = vitalmon.ConfFromConfig(vitalmon.DefaultConfig())
	} else {
		flow, err = vitalmon.Conf(*cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Println(titleStyle.Render("vitalmon") + " serving the control API on " + flow.Config().HTTP.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return flow.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := vitalmon.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good (source=%s sink=%s)\n", *cfgPath, cfg.Source.Kind, cfg.Sink.Kind)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(ctx, *url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

var statsTargets = []struct {
	metric string
	label  string
}{
	{"vitalmon_samples_received_total", "samples"},
	{"vitalmon_capture_log_length", "log"},
	{"vitalmon_archive_queue_length", "queue"},
	{"vitalmon_archived_total", "archived"},
	{"vitalmon_journal_size_bytes", "journal_bytes"},
}

func printMetricsSnapshot(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return err
	}

	parts := make([]string, 0, len(statsTargets))
	for _, t := range statsTargets {
		parts = append(parts, fmt.Sprintf("%s=%.0f", t.label, metricValue(families[t.metric])))
	}
	fmt.Printf("[%s] %s\n", time.Now().Format(time.RFC3339), strings.Join(parts, " "))
	return nil
}

func metricValue(mf *dto.MetricFamily) float64 {
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0
	}
	m := mf.GetMetric()[0]
	switch mf.GetType() {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	default:
		return m.GetUntyped().GetValue()
	}
}

func watchCommand(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	url := fs.String("url", "http://localhost:8080/vitals", "Vitals endpoint of the control API")
	interval := fs.Duration("interval", time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printVitals(ctx, *url); err != nil {
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
			}
		}
	}
}

var vitalNames = map[string]string{
	"hr":          "Heart rate",
	"spo2":        "SpO2",
	"temperature": "Temperature",
}

func printVitals(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var readings map[string]vitalmon.Reading
	if err := json.NewDecoder(resp.Body).Decode(&readings); err != nil {
		return err
	}
	keys := make([]string, 0, len(readings))
	for k := range readings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{titleStyle.Render(time.Now().Format(time.TimeOnly))}
	for _, k := range keys {
		r := readings[k]
		name := vitalNames[k]
		if name == "" {
			name = k
		}
		lines = append(lines, labelStyle.Render(name)+severityStyle(r.Severity).Render(r.Label+"  "+r.Status))
	}
	if len(keys) == 0 {
		lines = append(lines, labelStyle.Render("waiting")+"no readings yet")
	}
	fmt.Println(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return nil
}

func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case "danger":
		return dangerStyle
	case "warning":
		return warningStyle
	default:
		return normalStyle
	}
}

func printUsage() {
	fmt.Printf(`vitalmon CLI

Usage:
  vitalmon <command> [flags]

Commands:
  run        Start the monitor runtime using the provided config
  validate   Load and validate a config file without starting the runtime
  stats      Poll the Prometheus metrics endpoint and print live counters
  watch      Poll the control API and print the current vital readings

Examples:
  vitalmon run -config ./data/config.yaml
  vitalmon validate -config ./data/config.yaml
  vitalmon stats -url http://localhost:9100/metrics -interval 1s
  vitalmon watch -url http://localhost:8080/vitals
`)
}
