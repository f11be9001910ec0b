package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultOptions() Options {
	return Options{
		TargetSampleRate: 16000,
		HeadroomDB:       0.1,
		Compressor: CompressorSettings{
			ThresholdDB: -20,
			Ratio:       3,
			AttackMS:    5,
			ReleaseMS:   50,
		},
	}
}

func writeStereoWAV(t *testing.T, path string, rate int, seconds float64) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	frames := int(float64(rate) * seconds)
	data := make([]int, 0, frames*2)
	for i := 0; i < frames; i++ {
		v := int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		data = append(data, v, v/2)
	}

	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestDownmix(t *testing.T) {
	mono := Downmix([]float64{1, 0, 0.5, 0.5, -1, 1}, 2)
	assert.Equal(t, []float64{0.5, 0.5, 0}, mono)

	in := []float64{0.1, 0.2}
	assert.Equal(t, in, Downmix(in, 1))
}

func TestPeakNormalize(t *testing.T) {
	out := PeakNormalize([]float64{0.25, -0.5, 0.1}, 0.1)
	want := math.Pow(10, -0.1/20)
	assert.InDelta(t, -want, out[1], 1e-9)
	assert.InDelta(t, want/2, out[0], 1e-9)

	silent := []float64{0, 0, 0}
	assert.Equal(t, silent, PeakNormalize(silent, 0.1))
}

func TestCompress(t *testing.T) {
	settings := CompressorSettings{ThresholdDB: -20, Ratio: 3, AttackMS: 5, ReleaseMS: 50}

	t.Run("reduces loud signal", func(t *testing.T) {
		loud := make([]float64, 16000)
		for i := range loud {
			loud[i] = 0.9
		}
		out := Compress(loud, 16000, settings)

		// Steady state: 0.9 is about -0.9 dBFS, 19.1 dB over threshold, reduced by two thirds.
		expected := 0.9 * math.Pow(10, -(20*math.Log10(0.9)+20)*(2.0/3)/20)
		assert.InDelta(t, expected, out[len(out)-1], 1e-3)
		assert.Less(t, out[len(out)-1], 0.9)
	})

	t.Run("leaves quiet signal alone", func(t *testing.T) {
		quiet := []float64{0.01, -0.01, 0.01, -0.01}
		assert.Equal(t, quiet, Compress(quiet, 16000, settings))
	})

	t.Run("ratio of one is a no-op", func(t *testing.T) {
		in := []float64{0.9, 0.9}
		assert.Equal(t, in, Compress(in, 16000, CompressorSettings{ThresholdDB: -20, Ratio: 1}))
	})
}

func TestResample(t *testing.T) {
	in := make([]float64, 44100)
	out := Resample(in, 44100, 16000)
	assert.Len(t, out, 16000)

	ramp := []float64{0, 1, 2, 3}
	up := Resample(ramp, 1, 2)
	require.Len(t, up, 8)
	assert.InDelta(t, 0.5, up[1], 1e-9)
	assert.InDelta(t, 3, up[7], 1e-9)
}

func TestNormalizer_ProducesMono16kWAV(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "question.wav")
	writeStereoWAV(t, src, 44100, 0.5)

	out := NewNormalizer(defaultOptions(), nil).Normalize(src)
	assert.Equal(t, filepath.Join(dir, "question_opt.wav"), out)

	clip, err := WAVDecoder{}.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 1, clip.Channels)
	assert.Equal(t, 16000, clip.SampleRate)
	assert.Len(t, clip.Samples, 8000)
}

func TestNormalizer_FallsBackOnUnreadableInput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "question.webm")
	require.NoError(t, os.WriteFile(src, []byte("definitely not audio"), 0o600))

	out := NewNormalizer(defaultOptions(), nil).Normalize(src)
	assert.Equal(t, src, out)
	assert.NoFileExists(t, OptimizedPath(src))
}

type panickingDecoder struct{}

func (panickingDecoder) Decode(string) (*Clip, error) { panic("boom") }

func TestNormalizer_RecoversFromPanic(t *testing.T) {
	src := filepath.Join(t.TempDir(), "question.wav")
	n := NewNormalizer(defaultOptions(), nil).WithDecoder(panickingDecoder{})

	assert.NotPanics(t, func() {
		assert.Equal(t, src, n.Normalize(src))
	})
}

func TestNormalizer_EmptyClip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "question.wav")
	n := NewNormalizer(defaultOptions(), nil).WithDecoder(stubDecoder{clip: &Clip{Channels: 1, SampleRate: 16000}})

	assert.Equal(t, src, n.Normalize(src))
}

type stubDecoder struct {
	clip *Clip
}

func (s stubDecoder) Decode(string) (*Clip, error) { return s.clip, nil }
