package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const ffmpegTimeout = 30 * time.Second

var (
	// ErrUnsupportedFormat is returned when a decoder cannot read the container or codec.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrEmptyAudio is returned for files that decode to zero samples.
	ErrEmptyAudio = errors.New("audio contains no samples")
)

// Clip is decoded audio as interleaved samples in [-1, 1].
type Clip struct {
	Samples    []float64
	Channels   int
	SampleRate int
}

// Decoder turns an audio file on disk into a Clip.
type Decoder interface {
	Decode(path string) (*Clip, error)
}

// WAVDecoder reads PCM WAV files.
type WAVDecoder struct{}

func (WAVDecoder) Decode(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audio: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE file", ErrUnsupportedFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding wav: %w", err)
	}
	if d.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: wav codec %d is not PCM", ErrUnsupportedFormat, d.WavAudioFormat)
	}

	return clipFromBuffer(buf, int(d.BitDepth))
}

// FFmpegDecoder decodes anything ffmpeg understands (webm, ogg, mp3, m4a ...)
// by transcoding it to a temporary 16-bit WAV first. WAV input skips ffmpeg.
type FFmpegDecoder struct {
	Binary string
}

func (d FFmpegDecoder) Decode(path string) (*Clip, error) {
	if clip, err := (WAVDecoder{}).Decode(path); err == nil {
		return clip, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "ffmpeg-*.wav")
	if err != nil {
		return nil, fmt.Errorf("creating ffmpeg output: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	ctx, cancel := context.WithTimeout(context.Background(), ffmpegTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.Binary,
		"-nostdin", "-y", "-loglevel", "error",
		"-i", path,
		"-f", "wav", "-acodec", "pcm_s16le",
		tmpPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("running ffmpeg: %w: %s", err, out)
	}

	return WAVDecoder{}.Decode(tmpPath)
}

func clipFromBuffer(buf *goaudio.IntBuffer, bitDepth int) (*Clip, error) {
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, ErrEmptyAudio
	}
	if buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, buf.Format.NumChannels, buf.Format.SampleRate)
	}

	var offset, scale float64
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		offset, scale = 128, 128
	case 16, 24, 32:
		scale = float64(int64(1) << (bitDepth - 1))
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
	}

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = (float64(v) - offset) / scale
	}

	return &Clip{
		Samples:    samples,
		Channels:   buf.Format.NumChannels,
		SampleRate: buf.Format.SampleRate,
	}, nil
}

// WriteWAV encodes mono samples as 16-bit PCM WAV at path.
func WriteWAV(path string, samples []float64, sampleRate int) error {
	if len(samples) == 0 {
		return ErrEmptyAudio
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav: %w", err)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		v := s * 32767
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		data[i] = int(v)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	werr := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	})
	cerr := enc.Close()
	ferr := f.Close()

	if err := errors.Join(werr, cerr, ferr); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}
	return nil
}
