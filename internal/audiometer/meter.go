// Package audiometer turns a raw audio chunk into a scalar intensity level
// and a per-frame waveform, and tracks speech on/off with hysteresis.
package audiometer

import (
	"math"

	"github.com/voxorbit/callorbit/pkg/telephony"
)

const maxSampleStride = 800

// Level computes a scalar intensity in [0,1] for one chunk of raw audio.
// 8-bit unsigned µ-law uses mean |sample-128|/128; 16-bit little-endian PCM
// uses mean |sample|/32768. Sampling uses a stride of
// max(1, len(data)/maxSampleStride) bytes, rounded up to 2 for PCM so the
// stride always lands on a sample boundary.
func Level(data []byte, enc telephony.Encoding) float64 {
	if len(data) == 0 {
		return 0
	}
	switch enc {
	case telephony.EncodingPCM16:
		return pcmLevel(data)
	default:
		return muLawLevel(data)
	}
}

func muLawLevel(data []byte) float64 {
	stride := max(1, len(data)/maxSampleStride)
	sum := 0.0
	n := 0
	for i := 0; i < len(data); i += stride {
		sum += math.Abs(float64(data[i]) - 128)
		n++
	}
	if n == 0 {
		return 0
	}
	return (sum / float64(n)) / 128
}

func pcmLevel(data []byte) float64 {
	stride := max(1, len(data)/maxSampleStride)
	if stride%2 != 0 {
		stride++
	}
	sum := 0.0
	n := 0
	for i := 0; i+1 < len(data); i += stride {
		sample := int16(uint16(data[i]) | uint16(data[i+1])<<8)
		sum += math.Abs(float64(sample))
		n++
	}
	if n == 0 {
		return 0
	}
	return (sum / float64(n)) / 32768
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

const maxWaveformFrames = 48

// Waveform returns a per-frame level vector for waveform rendering.
// frames = min(48, ceil(durationMs/intervalMs)), each frame covering
// len(data)/frames bytes.
func Waveform(data []byte, enc telephony.Encoding, durationMs, intervalMs int) []float64 {
	if len(data) == 0 || intervalMs <= 0 {
		return nil
	}
	frames := int(math.Ceil(float64(durationMs) / float64(intervalMs)))
	if frames > maxWaveformFrames {
		frames = maxWaveformFrames
	}
	if frames < 1 {
		frames = 1
	}
	frameLen := len(data) / frames
	if frameLen == 0 {
		frameLen = len(data)
		frames = 1
	}
	out := make([]float64, 0, frames)
	for i := 0; i < frames; i++ {
		start := i * frameLen
		end := start + frameLen
		if i == frames-1 || end > len(data) {
			end = len(data)
		}
		if start >= end {
			break
		}
		out = append(out, Level(data[start:end], enc))
	}
	return out
}
