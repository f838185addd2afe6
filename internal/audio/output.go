// Package audio plays finite PCM buffers through the ebiten audio
// context, one context player per active voice.
package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/dhudetz/midieval/internal/pcm"
	"github.com/dhudetz/midieval/internal/voice"
)

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// The ebiten audio context is process-global and fixed-rate; opening a
// second Output at a different rate is an error. The context always
// renders stereo.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// Output starts buffer playbacks on the shared audio context. It
// satisfies voice.Output.
type Output struct {
	ctx        *ebitaudio.Context
	sampleRate int
	bufferSize time.Duration
}

// NewOutput opens (or reuses) the audio context at the given rate.
// bufferFrames sizes each player's internal buffer; 0 keeps the engine
// default.
func NewOutput(sampleRate, bufferFrames int) (*Output, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	out := &Output{ctx: ctx, sampleRate: sampleRate}
	if bufferFrames > 0 {
		out.bufferSize = time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate)
	}
	return out, nil
}

// Start begins playback of buf from frame 0. The buffer plays once to
// completion; the returned handle reports when it has drained.
func (o *Output) Start(buf *pcm.Buffer) (voice.Handle, error) {
	pl, err := o.ctx.NewPlayer(bytes.NewReader(interleaveStereo(buf)))
	if err != nil {
		return nil, err
	}
	if o.bufferSize > 0 {
		pl.SetBufferSize(o.bufferSize)
	}
	pl.Play()
	return &handle{pl: pl}, nil
}

// interleaveStereo renders the buffer as the context's wire format:
// interleaved signed 16-bit little-endian stereo. Mono input lands on
// both channels; extra channels beyond two are dropped.
func interleaveStereo(buf *pcm.Buffer) []byte {
	frames := buf.Frames()
	out := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		l := buf.Data[i*buf.Channels]
		r := l
		if buf.Channels > 1 {
			r = buf.Data[i*buf.Channels+1]
		}
		out[i*4] = byte(l)
		out[i*4+1] = byte(uint16(l) >> 8)
		out[i*4+2] = byte(r)
		out[i*4+3] = byte(uint16(r) >> 8)
	}
	return out
}

type handle struct {
	pl *ebitaudio.Player
}

func (h *handle) Playing() bool { return h.pl.IsPlaying() }
func (h *handle) Close() error  { return h.pl.Close() }
