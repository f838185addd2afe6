package pcm

import "errors"

// ErrMalformedBuffer indicates a buffer with zero frames or sample data
// that does not divide evenly into frames.
var ErrMalformedBuffer = errors.New("pcm: malformed buffer")

// Buffer holds decoded PCM audio: interleaved signed 16-bit samples at a
// fixed rate and channel count. Buffers are treated as immutable once
// built; derivation always allocates a new Buffer.
type Buffer struct {
	Rate     int
	Channels int
	Data     []int16
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Validate reports whether the buffer is playable.
func (b *Buffer) Validate() error {
	if b.Rate <= 0 || b.Channels <= 0 {
		return ErrMalformedBuffer
	}
	if len(b.Data) == 0 || len(b.Data)%b.Channels != 0 {
		return ErrMalformedBuffer
	}
	return nil
}

// ResampleFrames returns a copy of b stretched or compressed to exactly n
// frames by linear interpolation over the evenly spaced source positions
// i*F/n, each channel independently. The result keeps b's rate and
// channel count; callers adjust those fields when the resample represents
// a rate conversion rather than a pitch shift.
func (b *Buffer) ResampleFrames(n int) *Buffer {
	src := b.Frames()
	out := &Buffer{Rate: b.Rate, Channels: b.Channels, Data: make([]int16, n*b.Channels)}
	if src == 0 || n == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		pos := float64(i) * float64(src) / float64(n)
		lo := int(pos)
		hi := lo + 1
		if hi >= src {
			hi = src - 1
		}
		frac := pos - float64(lo)
		for c := 0; c < b.Channels; c++ {
			a := float64(b.Data[lo*b.Channels+c])
			z := float64(b.Data[hi*b.Channels+c])
			out.Data[i*b.Channels+c] = int16(a + (z-a)*frac)
		}
	}
	return out
}

// Convert returns b adapted to the given rate and channel count. Mono is
// duplicated into all output channels; multi-channel input collapses to
// mono by averaging. A rate change resamples linearly, preserving pitch
// and duration (frame count scales by rate/b.Rate).
func (b *Buffer) Convert(rate, channels int) *Buffer {
	out := b
	if channels != out.Channels {
		out = remapChannels(out, channels)
	}
	if rate != out.Rate {
		n := out.Frames() * rate / out.Rate
		r := out.ResampleFrames(n)
		r.Rate = rate
		out = r
	}
	return out
}

func remapChannels(b *Buffer, channels int) *Buffer {
	frames := b.Frames()
	out := &Buffer{Rate: b.Rate, Channels: channels, Data: make([]int16, frames*channels)}
	for i := 0; i < frames; i++ {
		var s int16
		if b.Channels == 1 {
			s = b.Data[i]
		} else {
			sum := 0
			for c := 0; c < b.Channels; c++ {
				sum += int(b.Data[i*b.Channels+c])
			}
			s = int16(sum / b.Channels)
		}
		for c := 0; c < channels; c++ {
			if c < b.Channels && b.Channels > 1 && channels > 1 {
				// Keep original channels where both sides have them.
				out.Data[i*channels+c] = b.Data[i*b.Channels+c]
			} else {
				out.Data[i*channels+c] = s
			}
		}
	}
	return out
}
