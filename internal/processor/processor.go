package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/linuxmatters/sigcond/internal/mains"
	"github.com/linuxmatters/sigcond/internal/sensor"
	"github.com/linuxmatters/sigcond/internal/signal"
)

// Recorder observes the pipeline as it runs. internal/metrics implements it.
type Recorder interface {
	// ObserveBaseline reports the baseline level in use; calibrated is false
	// when the level came from config instead of a calibration run.
	ObserveBaseline(level int, calibrated bool)
	ObserveSample(s Sample)
}

// Options controls a single ProcessSource run.
type Options struct {
	OutputPath string       // Empty = <input>-conditioned.<format>
	Format     OutputFormat // Default OutputCSV
	Delayer    signal.Delayer
	Recorder   Recorder
	Progress   ProgressFunc
}

// ProcessingResult contains the results of conditioning one trace
type ProcessingResult struct {
	InputPath  string
	OutputPath string
	Config     *ChainConfig
	Chain      []string // Filter names in application order

	Input  *SignalMeasurements // Pass 1, raw samples
	Output *SignalMeasurements // Pass 3, conditioned samples

	BaselineLevel  int
	Calibrated     bool
	CalibrationGap time.Duration
	Clamped        int
	OutputClipped  int // Samples the output format could not represent
	FinalFloor     int

	AnalysisTime    time.Duration
	CalibrationTime time.Duration
	ProcessingTime  time.Duration
}

// ProcessSource conditions a trace in three passes:
// - Pass 1: analyse the raw trace and, if enabled, adapt the config to it
// - Pass 2: calibrate the baseline from the first readings
// - Pass 3: run every sample through the chain and write it out
//
// The output file is named <basename>-conditioned.<format> next to the input
// unless opts.OutputPath is set. config is updated in place by adaptive
// tuning.
func ProcessSource(ctx context.Context, inputPath string, src sensor.Trace, config *ChainConfig, opts Options) (*ProcessingResult, error) {
	if config == nil {
		config = DefaultChainConfig()
	}
	if opts.Format == "" {
		opts.Format = OutputCSV
	}
	if opts.OutputPath == "" {
		opts.OutputPath = generateOutputPath(inputPath, opts.Format)
	}
	if config.SampleRate <= 0 {
		config.SampleRate = src.Metadata().SampleRate
	}

	result := &ProcessingResult{
		InputPath:  inputPath,
		OutputPath: opts.OutputPath,
		Config:     config,
	}
	log := logrus.WithFields(logrus.Fields{
		"function": "ProcessSource",
		"input":    inputPath,
	})

	// Pass 1: Analysis
	start := time.Now()
	measurements, err := AnalyzeSource(ctx, src, config.Pin, opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("Pass 1 failed: %w", err)
	}
	result.Input = measurements
	if config.Adaptive {
		AdaptConfig(config, measurements)
	} else {
		config.Measurements = measurements
	}
	result.AnalysisTime = time.Since(start)

	pipeline, err := config.BuildChain()
	if err != nil {
		return nil, err
	}
	result.Chain = pipeline.Chain.Names()

	// Pass 2: Calibration
	start = time.Now()
	if err := calibrate(pipeline, src, config, opts, result); err != nil {
		return nil, err
	}
	result.CalibrationTime = time.Since(start)
	if opts.Recorder != nil && pipeline.Baseline != nil {
		opts.Recorder.ObserveBaseline(pipeline.Baseline.Level(), result.Calibrated)
	}

	log.WithFields(logrus.Fields{
		"chain":    pipeline.Chain.String(),
		"baseline": result.BaselineLevel,
	}).Info("Conditioning chain ready")

	// Pass 3: Processing
	start = time.Now()
	output, clipped, err := condition(ctx, pipeline, src, config, opts)
	if err != nil {
		return nil, fmt.Errorf("Pass 3 failed: %w", err)
	}
	result.Output = output
	result.OutputClipped = clipped
	result.ProcessingTime = time.Since(start)
	if pipeline.Amp != nil {
		result.Clamped = pipeline.Amp.Clamped
	}
	if pipeline.Floor != nil {
		result.FinalFloor = pipeline.Floor.Floor()
	}

	log.WithFields(logrus.Fields{
		"output":  result.OutputPath,
		"samples": output.Samples,
		"clamped": result.Clamped,
		"elapsed": result.ProcessingTime,
	}).Info("Conditioning complete")

	if clipped > 0 {
		log.WithFields(logrus.Fields{
			"format":  opts.Format,
			"clipped": clipped,
		}).Warn("Conditioned values outside the output format's range were clipped")
	}

	return result, nil
}

// calibrate runs Pass 2 and rewinds the trace so Pass 3 sees every sample.
func calibrate(p *Pipeline, src sensor.Trace, config *ChainConfig, opts Options, result *ProcessingResult) error {
	defer src.Rewind()

	if p.Baseline == nil {
		return nil
	}
	if config.CalibrationSamples <= 0 {
		result.BaselineLevel = p.Baseline.Level()
		return nil
	}

	interval := config.CalibrationInterval
	if config.MainsHz > 0 {
		interval = mains.CalibrationInterval(config.MainsHz, interval)
	}
	delay := opts.Delayer
	if delay == nil {
		delay = defaultDelayer(config)
	}

	if opts.Progress != nil {
		opts.Progress(PassCalibration, "Calibrating", 0, Sample{}, nil)
	}

	src.Rewind()
	p.Baseline.Calibrate(src, delay, config.Pin, config.CalibrationSamples, interval)

	result.BaselineLevel = p.Baseline.Level()
	result.Calibrated = true
	result.CalibrationGap = interval

	if opts.Progress != nil {
		opts.Progress(PassCalibration, "Calibrating", 1, Sample{Conditioned: float64(result.BaselineLevel)}, nil)
	}
	return nil
}

// defaultDelayer sleeps only when the run is paced in real time.
func defaultDelayer(config *ChainConfig) signal.Delayer {
	if config.Pace && config.SampleRate > 0 {
		return signal.SleepDelayer{}
	}
	return &sensor.Instant{}
}

// condition runs Pass 3.
func condition(ctx context.Context, p *Pipeline, src sensor.Trace, config *ChainConfig, opts Options) (*SignalMeasurements, int, error) {
	writer, err := createOutputWriter(opts.OutputPath, opts.Format, config.SampleRate)
	if err != nil {
		return nil, 0, err
	}

	acc, err := newMeasurementAccumulator(signal.DefaultWindowCapacity, config.AmpMin, config.AmpMax)
	if err != nil {
		writer.Close()
		return nil, 0, err
	}

	var limiter *rate.Limiter
	if config.Pace && config.SampleRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.SampleRate), 1)
	}

	total := src.Len()
	every := progressInterval(total)

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			writer.Close()
			return nil, 0, err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				writer.Close()
				return nil, 0, err
			}
		}

		raw := src.Read(config.Pin)
		out := p.Chain.Apply(float64(raw))

		if err := writer.Write(raw, out); err != nil {
			writer.Close()
			return nil, 0, fmt.Errorf("failed to write sample %d: %w", i, err)
		}
		acc.add(int(out))

		s := Sample{Index: i, Raw: raw, Conditioned: out}
		if p.Amp != nil {
			s.Clamped = p.Amp.LastClamped
		}
		if p.Floor != nil {
			s.Floor = p.Floor.Floor()
		}
		if opts.Recorder != nil {
			opts.Recorder.ObserveSample(s)
		}
		if opts.Progress != nil && i%every == 0 {
			opts.Progress(PassProcessing, "Conditioning", float64(i)/float64(total), s, nil)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, 0, err
	}
	if opts.Progress != nil {
		opts.Progress(PassProcessing, "Conditioning", 1.0, Sample{Index: total}, nil)
	}
	return acc.result(config.SampleRate), writer.Clipped(), nil
}
