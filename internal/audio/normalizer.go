// Package audio prepares uploaded recordings for speech recognition.
package audio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures the Normalizer.
type Options struct {
	TargetSampleRate int
	HeadroomDB       float64
	Compressor       CompressorSettings
	// FFmpegPath enables decoding of non-WAV uploads when set.
	FFmpegPath string
}

// Normalizer downmixes, peak-normalizes, compresses and resamples a recording
// into a 16-bit mono WAV next to the source file.
type Normalizer struct {
	opts    Options
	decoder Decoder
	logger  *slog.Logger
}

func NewNormalizer(opts Options, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	var dec Decoder = WAVDecoder{}
	if opts.FFmpegPath != "" {
		dec = FFmpegDecoder{Binary: opts.FFmpegPath}
	}
	return &Normalizer{opts: opts, decoder: dec, logger: logger}
}

// WithDecoder replaces the decoder used to read source files.
func (n *Normalizer) WithDecoder(d Decoder) *Normalizer {
	n.decoder = d
	return n
}

// OptimizedPath is where Normalize writes its output for path.
func OptimizedPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_opt.wav"
}

// Normalize is best effort. It returns the optimized file path, or the
// original path when anything goes wrong. It never panics.
func (n *Normalizer) Normalize(path string) (result string) {
	out := OptimizedPath(path)

	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("audio optimization panicked, using original", "path", path, "panic", r)
			os.Remove(out)
			result = path
		}
	}()

	if err := n.optimize(path, out); err != nil {
		n.logger.Warn("audio optimization failed, using original", "path", path, "error", err)
		os.Remove(out)
		return path
	}

	n.logger.Debug("audio optimized", "source", path, "output", out)
	return out
}

func (n *Normalizer) optimize(src, dst string) error {
	clip, err := n.decoder.Decode(src)
	if err != nil {
		return err
	}
	if len(clip.Samples) == 0 {
		return ErrEmptyAudio
	}

	samples := Downmix(clip.Samples, clip.Channels)
	samples = PeakNormalize(samples, n.opts.HeadroomDB)
	samples = Compress(samples, clip.SampleRate, n.opts.Compressor)

	rate := n.opts.TargetSampleRate
	if rate <= 0 {
		rate = clip.SampleRate
	}
	samples = Resample(samples, clip.SampleRate, rate)

	if err := WriteWAV(dst, samples, rate); err != nil {
		return fmt.Errorf("saving optimized audio: %w", err)
	}
	return nil
}
