// ABOUTME: Linear resampler for 16-bit PCM speech
// ABOUTME: Brings synthesized audio reported at another rate to the speech format
package resample

import (
	"github.com/siervo-de-dios/siervo-go/pkg/audio"
)

// Resampler performs linear interpolation between two sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels < 1 {
		channels = 1
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// OutputFrames returns how many frames Resample produces for n input frames
func (r *Resampler) OutputFrames(n int) int {
	if n == 0 || r.inputRate <= 0 || r.outputRate <= 0 {
		return 0
	}
	return int(float64(n-1)/r.ratio) + 1
}

// Resample converts interleaved samples; the last input frame is always
// reached so a buffer never loses its tail.
func (r *Resampler) Resample(input []int) []int {
	inFrames := len(input) / r.channels
	outFrames := r.OutputFrames(inFrames)
	output := make([]int, outFrames*r.channels)

	for i := 0; i < outFrames; i++ {
		pos := float64(i) * r.ratio
		idx := int(pos)
		frac := pos - float64(idx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := input[idx*r.channels+ch]
			s2 := s1
			if idx+1 < inFrames {
				s2 = input[(idx+1)*r.channels+ch]
			}
			output[i*r.channels+ch] = int(float64(s1)*(1.0-frac) + float64(s2)*frac)
		}
	}

	return output
}

// PCM16 resamples little-endian 16-bit PCM from one rate to another.
// Equal rates return the input unchanged.
func PCM16(data []byte, fromRate, toRate, channels int) []byte {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 {
		return data
	}
	r := New(fromRate, toRate, channels)
	return audio.Int16Bytes(r.Resample(audio.Int16Samples(data)))
}

// ToSpeech resamples mono 16-bit PCM at rate to the speech format rate
func ToSpeech(data []byte, rate int) []byte {
	return PCM16(data, rate, audio.SpeechFormat.SampleRate, audio.SpeechFormat.Channels)
}
