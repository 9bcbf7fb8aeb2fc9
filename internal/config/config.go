// Package config loads sigcond settings from an optional config file,
// SIGCOND_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/linuxmatters/sigcond/internal/mains"
	"github.com/linuxmatters/sigcond/internal/processor"
)

// EnvPrefix is prepended to every environment override: SIGCOND_AMP_GAIN=4
const EnvPrefix = "SIGCOND"

// DefaultLogFile receives debug logging so the TUI stays clean.
const DefaultLogFile = "sigcond-debug.log"

// Settings is everything a run needs, resolved from viper.
type Settings struct {
	Chain       *processor.ChainConfig
	Format      processor.OutputFormat
	MetricsAddr string

	v *viper.Viper
}

// Viper returns the underlying viper instance, for NewLogger.
func (s *Settings) Viper() *viper.Viper {
	return s.v
}

// Load reads configuration from path (TOML, YAML or JSON by extension) and
// the environment. An empty path searches for sigcond.{toml,yaml} in the
// working directory; a missing file is not an error.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sigcond")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config file: defaults and environment only
	}

	return FromViper(v)
}

// FromViper resolves Settings from an already-populated viper instance.
func FromViper(v *viper.Viper) (*Settings, error) {
	chain := processor.DefaultChainConfig()

	pin := v.GetInt("input.pin")
	if pin < 0 || pin > 255 {
		return nil, fmt.Errorf("input.pin %d out of range 0-255", pin)
	}
	chain.Pin = uint8(pin)
	chain.SampleRate = v.GetInt("input.sample_rate")
	chain.Pace = v.GetBool("input.pace")

	chain.BaselineEnabled = v.GetBool("baseline.enabled")
	chain.BaselineLevel = v.GetInt("baseline.level")
	chain.CalibrationSamples = v.GetInt("baseline.calibration_samples")
	chain.CalibrationInterval = v.GetDuration("baseline.calibration_interval")

	hz, err := parseMains(v.GetString("baseline.mains"))
	if err != nil {
		return nil, err
	}
	chain.MainsHz = hz

	chain.SmoothEnabled = v.GetBool("smooth.enabled")
	chain.SmoothFactor = v.GetFloat64("smooth.factor")

	chain.FloorEnabled = v.GetBool("floor.enabled")
	chain.FloorSamples = v.GetInt("floor.samples")

	chain.AmpEnabled = v.GetBool("amp.enabled")
	chain.AmpGain = v.GetFloat64("amp.gain")
	chain.AmpMin = v.GetInt("amp.min")
	chain.AmpMax = v.GetInt("amp.max")

	order, err := processor.ParseFilterOrder(v.GetString("chain.order"))
	if err != nil {
		return nil, fmt.Errorf("chain.order: %w", err)
	}
	chain.FilterOrder = order
	chain.Adaptive = v.GetBool("chain.adaptive")
	chain.Pinned = processor.Pinned{
		AmpGain:      explicit(v, "amp.gain"),
		SmoothFactor: explicit(v, "smooth.factor"),
		FloorSamples: explicit(v, "floor.samples"),
	}

	format, err := processor.ParseOutputFormat(v.GetString("output.format"))
	if err != nil {
		return nil, err
	}

	return &Settings{
		Chain:       chain,
		Format:      format,
		MetricsAddr: v.GetString("metrics.addr"),
		v:           v,
	}, nil
}

// explicit reports whether key came from the config file or the environment
// rather than a default. viper's IsSet also counts defaults.
func explicit(v *viper.Viper, key string) bool {
	if v.InConfig(key) {
		return true
	}
	_, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	return ok
}

func setDefaults(v *viper.Viper) {
	d := processor.DefaultChainConfig()

	v.SetDefault("input.pin", int(d.Pin))
	v.SetDefault("input.sample_rate", d.SampleRate)
	v.SetDefault("input.pace", d.Pace)

	v.SetDefault("baseline.enabled", d.BaselineEnabled)
	v.SetDefault("baseline.level", d.BaselineLevel)
	v.SetDefault("baseline.calibration_samples", d.CalibrationSamples)
	v.SetDefault("baseline.calibration_interval", d.CalibrationInterval.String())
	v.SetDefault("baseline.mains", "off")

	v.SetDefault("smooth.enabled", d.SmoothEnabled)
	v.SetDefault("smooth.factor", d.SmoothFactor)

	v.SetDefault("floor.enabled", d.FloorEnabled)
	v.SetDefault("floor.samples", d.FloorSamples)

	v.SetDefault("amp.enabled", d.AmpEnabled)
	v.SetDefault("amp.gain", d.AmpGain)
	v.SetDefault("amp.min", d.AmpMin)
	v.SetDefault("amp.max", d.AmpMax)

	names := make([]string, len(d.FilterOrder))
	for i, id := range d.FilterOrder {
		names[i] = string(id)
	}
	v.SetDefault("chain.order", strings.Join(names, ","))
	v.SetDefault("chain.adaptive", d.Adaptive)

	v.SetDefault("output.format", string(processor.OutputCSV))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", DefaultLogFile)

	v.SetDefault("metrics.addr", "")
}

// parseMains accepts "off", "auto" (detect from the local timezone) or a
// frequency in Hz.
func parseMains(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "0":
		return 0, nil
	case "auto":
		return mains.Frequency(), nil
	}

	hz, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "Hz"))
	if err != nil || hz <= 0 {
		return 0, fmt.Errorf("baseline.mains %q: want off, auto or a frequency in Hz", s)
	}
	return hz, nil
}
