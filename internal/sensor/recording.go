package sensor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

// Recording replays a captured trace held in memory. Frames are interleaved:
// sample c of frame f is data[f*channels+c].
type Recording struct {
	data     []int
	channels int
	cursor   int
	meta     Metadata
}

// OpenRecording loads a WAV or CSV trace chosen by file extension.
func OpenRecording(path string) (*Recording, *Metadata, error) {
	var (
		rec *Recording
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		rec, err = readWAV(path)
	case ".csv", ".txt":
		rec, err = readCSV(path)
	default:
		return nil, nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "OpenRecording",
		"path":        path,
		"format":      rec.meta.Format,
		"channels":    rec.meta.Channels,
		"frames":      rec.meta.Frames,
		"sample_rate": rec.meta.SampleRate,
	}).Info("Recording loaded")

	meta := rec.meta
	return rec, &meta, nil
}

// NewRecording builds a recording from interleaved ADC samples.
func NewRecording(data []int, channels, sampleRate int) (*Recording, error) {
	if channels <= 0 {
		channels = 1
	}
	frames := len(data) / channels
	if frames == 0 {
		return nil, ErrEmptyRecording
	}
	data = data[:frames*channels]
	return &Recording{
		data:     data,
		channels: channels,
		meta: Metadata{
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   ADCBits,
			Frames:     frames,
		},
	}, nil
}

// Read returns the sample for channel pin%channels in the current frame and
// advances to the next frame. Past the end the final frame repeats.
func (r *Recording) Read(pin uint8) int {
	frame := min(r.cursor, r.meta.Frames-1)
	if r.cursor < r.meta.Frames {
		r.cursor++
	}
	return r.data[frame*r.channels+int(pin)%r.channels]
}

// Len returns the number of frames.
func (r *Recording) Len() int { return r.meta.Frames }

// Remaining returns the number of frames not yet read.
func (r *Recording) Remaining() int { return r.meta.Frames - r.cursor }

// Rewind moves back to the first frame.
func (r *Recording) Rewind() { r.cursor = 0 }

// Metadata returns the trace description.
func (r *Recording) Metadata() Metadata { return r.meta }

func readWAV(path string) (*Recording, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s: invalid WAV file: %w", path, ErrUnsupportedFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}
	data := make([]int, len(buf.Data))
	for i, v := range buf.Data {
		data[i] = pcmToADC(v, bitDepth)
	}

	rec, err := NewRecording(data, buf.Format.NumChannels, buf.Format.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec.meta.Format = FormatWAV
	rec.meta.BitDepth = bitDepth
	return rec, nil
}

// pcmToADC rescales a PCM sample to the ADC range. 8-bit WAV is unsigned;
// wider depths are signed around zero.
func pcmToADC(v, bitDepth int) int {
	switch {
	case bitDepth <= 8:
		return clampADC(v << (ADCBits - 8))
	case bitDepth >= ADCBits:
		return clampADC((v + 1<<(bitDepth-1)) >> (bitDepth - ADCBits))
	default:
		return clampADC((v + 1<<(bitDepth-1)) << (ADCBits - bitDepth))
	}
}

func readCSV(path string) (*Recording, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.Comment = '#'
	r.TrimLeadingSpace = true

	var (
		data     []int
		channels int
		line     int
	)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line++

		values, ok := parseRow(record)
		if !ok {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("%s: row %d: non-numeric value: %w", path, line, ErrUnsupportedFormat)
		}
		if channels == 0 {
			channels = len(values)
		}
		data = append(data, values...)
	}

	rec, err := NewRecording(data, channels, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec.meta.Format = FormatCSV
	return rec, nil
}

// parseRow converts a CSV record to ADC values, truncating decimals.
func parseRow(record []string) ([]int, bool) {
	values := make([]int, 0, len(record))
	for _, field := range record {
		field = strings.TrimSpace(field)
		if n, err := strconv.Atoi(field); err == nil {
			values = append(values, n)
			continue
		}
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, false
		}
		values = append(values, int(f))
	}
	return values, true
}
