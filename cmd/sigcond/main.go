package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/sigcond/internal/cli"
	"github.com/linuxmatters/sigcond/internal/config"
	"github.com/linuxmatters/sigcond/internal/logging"
	"github.com/linuxmatters/sigcond/internal/metrics"
	"github.com/linuxmatters/sigcond/internal/processor"
	"github.com/linuxmatters/sigcond/internal/sensor"
	"github.com/linuxmatters/sigcond/internal/ui"
)

var (
	version = "0.0.1"
)

// simulatedInput names the built-in simulator in the input queue.
const simulatedInput = "simulated"

// CLI defines the command-line interface
type CLI struct {
	Version     bool     `short:"v" help:"Show version information"`
	Config      string   `short:"c" type:"path" placeholder:"PATH" help:"Path to TOML/YAML config file (optional)"`
	Simulate    int      `group:"Input" placeholder:"N" help:"Condition N samples from the built-in simulator"`
	Analyse     bool     `group:"Conditioning" help:"Measure traces and show the adapted chain without conditioning"`
	NoAdaptive  bool     `group:"Conditioning" help:"Use the configured chain without adaptive tuning"`
	Format      string   `group:"Output" placeholder:"FORMAT" help:"Output format: csv or wav (overrides config)"`
	Logs        bool     `group:"Output" help:"Save a session report next to each output"`
	MetricsAddr string   `group:"Output" placeholder:"ADDR" help:"Serve Prometheus metrics on ADDR while running"`
	Plain       bool     `group:"Output" help:"Print a summary per trace instead of the interactive display"`
	Files       []string `arg:"" name:"traces" help:"WAV or CSV traces to condition" type:"existingfile" optional:""`
}

func main() {
	os.Exit(run())
}

func run() int {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("sigcond"),
		kong.Description("Analog sensor signal conditioner"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		return 0
	}

	inputs := cliArgs.Files
	if cliArgs.Simulate > 0 {
		inputs = append(inputs, simulatedInput)
	}
	if len(inputs) == 0 {
		cli.PrintError("No input traces specified")
		_ = kctx.PrintUsage(false)
		return 1
	}

	settings, err := config.Load(cliArgs.Config)
	if err != nil {
		cli.PrintError(err.Error())
		return 1
	}
	if err := applyOverrides(settings, cliArgs); err != nil {
		cli.PrintError(err.Error())
		return 1
	}

	// Debug logging goes to a file so the TUI stays clean
	_, logCloser, err := config.NewLogger(settings.Viper())
	if err != nil {
		cli.PrintError(err.Error())
		return 1
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{
		settings: settings,
		simulate: cliArgs.Simulate,
		logs:     cliArgs.Logs,
	}
	if settings.MetricsAddr != "" {
		r.collector = metrics.NewCollector()
		go func() {
			if err := r.collector.Serve(ctx, settings.MetricsAddr); err != nil {
				logrus.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	var failed int
	switch {
	case cliArgs.Analyse && cliArgs.Plain:
		failed = r.analysePlain(ctx, inputs, os.Stdout)
	case cliArgs.Analyse:
		failed, err = r.analyseTUI(ctx, inputs)
	case cliArgs.Plain:
		failed = r.conditionPlain(ctx, inputs, os.Stdout)
	default:
		failed, err = r.conditionTUI(ctx, inputs)
	}
	if err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		return 1
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// applyOverrides lets command-line flags take precedence over the config
// file and environment.
func applyOverrides(s *config.Settings, c *CLI) error {
	if c.NoAdaptive {
		s.Chain.Adaptive = false
	}
	if c.Format != "" {
		format, err := processor.ParseOutputFormat(c.Format)
		if err != nil {
			return err
		}
		s.Format = format
	}
	if c.MetricsAddr != "" {
		s.MetricsAddr = c.MetricsAddr
	}
	return nil
}

// runner conditions one input at a time with shared settings.
type runner struct {
	settings  *config.Settings
	simulate  int
	logs      bool
	collector *metrics.Collector
}

// open returns the trace for an input: the simulator for simulatedInput,
// otherwise a WAV or CSV recording.
func (r *runner) open(path string) (sensor.Trace, error) {
	if path == simulatedInput && r.simulate > 0 {
		cfg := sensor.DefaultSimulatorConfig()
		cfg.Samples = r.simulate
		if r.settings.Chain.SampleRate > 0 {
			cfg.SampleRate = r.settings.Chain.SampleRate
		}
		if r.settings.Chain.MainsHz > 0 {
			cfg.MainsHz = r.settings.Chain.MainsHz
		}
		return sensor.NewSimulator(cfg), nil
	}

	rec, _, err := sensor.OpenRecording(path)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// process runs all three passes over one input and, with --logs, writes the
// session report.
func (r *runner) process(ctx context.Context, path string, progress processor.ProgressFunc) (*processor.ProcessingResult, error) {
	start := time.Now()

	src, err := r.open(path)
	if err != nil {
		return nil, err
	}

	opts := processor.Options{
		Format:   r.settings.Format,
		Progress: progress,
	}
	if r.collector != nil {
		opts.Recorder = r.collector.For(filepath.Base(path))
	}

	result, err := processor.ProcessSource(ctx, path, src, r.settings.Chain.Clone(), opts)
	if err != nil {
		return nil, err
	}

	if r.logs {
		reportPath, err := logging.GenerateReport(logging.ReportData{
			InputPath:  path,
			OutputPath: result.OutputPath,
			StartTime:  start,
			EndTime:    time.Now(),
			Result:     result,
			Metadata:   src.Metadata(),
		})
		if err != nil {
			logrus.WithError(err).WithField("input", path).Warn("Failed to write session report")
		} else {
			logrus.WithField("report", reportPath).Info("Session report written")
		}
	}
	return result, nil
}

// analyse runs Pass 1 only and returns the measurements with the chain the
// adaptive tuning would use.
func (r *runner) analyse(ctx context.Context, path string, progress processor.ProgressFunc) (sensor.Metadata, *processor.SignalMeasurements, *processor.ChainConfig, error) {
	src, err := r.open(path)
	if err != nil {
		return sensor.Metadata{}, nil, nil, err
	}

	chain := r.settings.Chain.Clone()
	m, err := processor.AnalyzeSource(ctx, src, chain.Pin, progress)
	if err != nil {
		return sensor.Metadata{}, nil, nil, err
	}
	if chain.Adaptive {
		processor.AdaptConfig(chain, m)
	} else {
		chain.Measurements = m
	}
	return src.Metadata(), m, chain, nil
}

// conditionPlain processes every input without the TUI and returns the
// number of failures.
func (r *runner) conditionPlain(ctx context.Context, inputs []string, w io.Writer) int {
	failed := 0
	for _, path := range inputs {
		result, err := r.process(ctx, path, nil)
		if err != nil {
			cli.PrintError(fmt.Sprintf("%s: %v", path, err))
			failed++
			continue
		}
		cli.PrintResult(w, result)
	}
	return failed
}

// analysePlain prints the analysis of every input without the TUI.
func (r *runner) analysePlain(ctx context.Context, inputs []string, w io.Writer) int {
	failed := 0
	for _, path := range inputs {
		meta, m, chain, err := r.analyse(ctx, path, nil)
		if err != nil {
			cli.PrintError(fmt.Sprintf("%s: %v", path, err))
			failed++
			continue
		}
		logging.DisplayAnalysisResults(w, path, meta, m, chain)
	}
	return failed
}

// conditionTUI processes every input behind the Bubbletea progress display.
func (r *runner) conditionTUI(ctx context.Context, inputs []string) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewModel(inputs), tea.WithAltScreen(), tea.WithContext(ctx))

	// Start processing in background
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, inputPath := range inputs {
			p.Send(ui.FileStartMsg{
				FileIndex: i,
				FileName:  inputPath,
			})

			ph := &progressHandler{p: p, input: inputPath}
			result, err := r.process(ctx, inputPath, ph.callback)
			if err != nil {
				logrus.WithError(err).WithField("input", inputPath).Error("Conditioning failed")
			}
			p.Send(ui.FileCompleteMsg{
				FileIndex: i,
				Result:    result,
				Error:     err,
			})
			if ctx.Err() != nil {
				return
			}
		}
		p.Send(ui.AllCompleteMsg{})
	}()

	final, err := p.Run()
	interrupted := ctx.Err() != nil
	cancel()
	<-done
	if err != nil && !interrupted {
		return 0, err
	}

	model, ok := final.(ui.Model)
	if !ok {
		return 0, nil
	}
	return model.FailedFiles + (len(inputs) - model.CompletedFiles - model.FailedFiles), nil
}

// analyseTUI measures each input behind the spinner display, then prints
// the analysis once the display has closed.
func (r *runner) analyseTUI(ctx context.Context, inputs []string) (int, error) {
	failed := 0
	for _, path := range inputs {
		p := tea.NewProgram(ui.NewAnalysisModel(), tea.WithContext(ctx))

		var (
			meta sensor.Metadata
			aerr error
		)
		go func() {
			p.Send(ui.AnalysisStartMsg{FilePath: path})
			var (
				m     *processor.SignalMeasurements
				chain *processor.ChainConfig
			)
			meta, m, chain, aerr = r.analyse(ctx, path, func(_ int, _ string, progress float64, s processor.Sample, _ *processor.SignalMeasurements) {
				p.Send(ui.AnalysisProgressMsg{Progress: progress, Raw: s.Raw})
			})
			p.Send(ui.AnalysisCompleteMsg{Measurements: m, Config: chain, Error: aerr})
		}()

		final, err := p.Run()
		if err != nil {
			return failed, err
		}
		model, ok := final.(ui.AnalysisModel)
		if !ok || !model.Done {
			// Quit before the analysis finished
			return failed + 1, nil
		}
		if model.Error != nil {
			cli.PrintError(fmt.Sprintf("%s: %v", path, model.Error))
			failed++
			continue
		}
		logging.DisplayAnalysisResults(os.Stdout, path, meta, model.Measurements, model.Config)
	}
	return failed, nil
}

// progressHandler forwards processor progress to the TUI
type progressHandler struct {
	p     *tea.Program
	input string
}

func (ph *progressHandler) callback(pass int, passName string, progress float64, sample processor.Sample, measurements *processor.SignalMeasurements) {
	logrus.WithFields(logrus.Fields{
		"input":    ph.input,
		"pass":     pass,
		"progress": fmt.Sprintf("%.1f%%", progress*100),
		"raw":      sample.Raw,
	}).Debug("Progress")

	ph.p.Send(ui.ProgressMsg{
		Pass:         pass,
		PassName:     passName,
		Progress:     progress,
		Sample:       sample,
		Measurements: measurements,
	})
}
