package processor

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// OutputFormat selects how conditioned samples are written.
type OutputFormat string

const (
	OutputCSV OutputFormat = "csv" // raw,conditioned per row
	OutputWAV OutputFormat = "wav" // 16-bit mono PCM, one count per PCM step
)

// defaultWAVSampleRate is used when neither the source nor the config knows
// the sample rate. WAV headers need one.
const defaultWAVSampleRate = 1000

// wavFlushFrames is how many samples are buffered before the WAV encoder
// is called.
const wavFlushFrames = 4096

// Writer receives every processed sample.
type Writer interface {
	Write(raw int, conditioned float64) error
	Close() error
	// Clipped is the number of samples the format could not hold.
	Clipped() int
}

// ParseOutputFormat validates a --format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputCSV, OutputWAV:
		return f, nil
	case "":
		return OutputCSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv or wav)", s)
	}
}

// generateOutputPath creates the output filename from the input filename
// Example: /path/to/trace.wav → /path/to/trace-conditioned.csv
func generateOutputPath(inputPath string, format OutputFormat) string {
	dir := filepath.Dir(inputPath)
	filename := filepath.Base(inputPath)
	ext := filepath.Ext(filename)
	nameWithoutExt := strings.TrimSuffix(filename, ext)

	return filepath.Join(dir, nameWithoutExt+"-conditioned."+string(format))
}

// createOutputWriter opens path for writing in the given format.
func createOutputWriter(path string, format OutputFormat, sampleRate int) (Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	switch format {
	case OutputWAV:
		if sampleRate <= 0 {
			sampleRate = defaultWAVSampleRate
		}
		return newWAVWriter(f, sampleRate), nil
	default:
		w := &csvWriter{file: f, w: csv.NewWriter(f)}
		if err := w.w.Write([]string{"raw", "conditioned"}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
		return w, nil
	}
}

// csvWriter writes one "raw,conditioned" row per sample.
type csvWriter struct {
	file *os.File
	w    *csv.Writer
	row  [2]string
}

func (c *csvWriter) Write(raw int, conditioned float64) error {
	c.row[0] = strconv.Itoa(raw)
	c.row[1] = strconv.FormatFloat(conditioned, 'f', -1, 64)
	return c.w.Write(c.row[:])
}

func (c *csvWriter) Clipped() int { return 0 }

func (c *csvWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.file.Close()
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return c.file.Close()
}

// wavWriter encodes the conditioned signal as 16-bit mono PCM. Each count is
// one PCM step, so negative output from baseline removal survives. Values
// are rounded to whole counts; anything outside the int16 range, or NaN, is
// clipped and counted.
type wavWriter struct {
	file    *os.File
	enc     *wav.Encoder
	buf     *audio.IntBuffer
	clipped int
}

func newWAVWriter(f *os.File, sampleRate int) *wavWriter {
	return &wavWriter{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, 16, 1, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			Data:           make([]int, 0, wavFlushFrames),
			SourceBitDepth: 16,
		},
	}
}

func (w *wavWriter) Write(_ int, conditioned float64) error {
	w.buf.Data = append(w.buf.Data, w.pcm(conditioned))
	if len(w.buf.Data) >= wavFlushFrames {
		return w.flush()
	}
	return nil
}

func (w *wavWriter) pcm(v float64) int {
	v = math.Round(v)
	switch {
	case math.IsNaN(v):
		w.clipped++
		return 0
	case v > math.MaxInt16:
		w.clipped++
		return math.MaxInt16
	case v < math.MinInt16:
		w.clipped++
		return math.MinInt16
	}
	return int(v)
}

func (w *wavWriter) Clipped() int { return w.clipped }

func (w *wavWriter) flush() error {
	if len(w.buf.Data) == 0 {
		return nil
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	w.buf.Data = w.buf.Data[:0]
	return nil
}

func (w *wavWriter) Close() error {
	if err := w.flush(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.enc.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to finalise WAV header: %w", err)
	}
	return w.file.Close()
}
