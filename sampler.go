// Package midieval maps MIDI note events to pre-decoded audio sample
// buffers and plays them through a bounded pool of concurrent voices.
//
// A sparse note map (a few root notes assigned to files) is expanded
// into dense coverage of the piano range by pitch-shifting resampling,
// then consumed by a single-threaded dispatch loop that triggers voices
// as note-on events arrive.
package midieval

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dhudetz/midieval/internal/audio"
	"github.com/dhudetz/midieval/internal/diag"
	"github.com/dhudetz/midieval/internal/library"
	"github.com/dhudetz/midieval/internal/midiio"
	"github.com/dhudetz/midieval/internal/pitch"
	"github.com/dhudetz/midieval/internal/voice"
)

// Event is one trigger or release from the event source.
type Event struct {
	On       bool
	Note     uint8
	Velocity uint8
}

// EventSource supplies events without blocking; ok is false when none is
// pending. Run busy-polls it with a short sleep between empty polls.
type EventSource interface {
	Poll() (ev Event, ok bool)
}

// FillPolicy selects how gaps between root notes are covered.
type FillPolicy string

const (
	// FillOff keeps only the decoded roots.
	FillOff FillPolicy = "off"
	// FillForward derives each gap upward from the nearest root below.
	FillForward FillPolicy = "forward"
	// FillBackward derives each gap downward from the nearest root above.
	FillBackward FillPolicy = "backward"
)

type Option func(*samplerConfig)

type samplerConfig struct {
	fill         FillPolicy
	voices       int
	channels     int
	bufferFrames int
	pollIdle     time.Duration
	reporter     diag.Reporter
	output       voice.Output
}

func defaultSamplerConfig() samplerConfig {
	return samplerConfig{
		fill:     FillOff,
		voices:   voice.DefaultCapacity,
		channels: 2,
		pollIdle: time.Millisecond,
		reporter: diag.Nop(),
	}
}

// WithFillPolicy sets how notes without a direct root assignment are
// derived. Default is FillOff.
func WithFillPolicy(p FillPolicy) Option {
	return func(cfg *samplerConfig) {
		cfg.fill = p
	}
}

// WithVoices sets the playback voice pool capacity. Default 64.
func WithVoices(n int) Option {
	return func(cfg *samplerConfig) {
		cfg.voices = n
	}
}

// WithChannels sets the channel count buffers are normalized to (1 or 2).
// Default 2.
func WithChannels(n int) Option {
	return func(cfg *samplerConfig) {
		cfg.channels = n
	}
}

// WithBufferFrames sets the audio engine's per-voice buffer size in
// frames. 0 keeps the engine default.
func WithBufferFrames(n int) Option {
	return func(cfg *samplerConfig) {
		cfg.bufferFrames = n
	}
}

// WithLogger routes diagnostics (skipped samples, dropped triggers,
// library rebuilds) through a zap logger. Default is to discard them.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *samplerConfig) {
		cfg.reporter = diag.NewZapReporter(l)
	}
}

// WithPollIdle sets how long Run sleeps after an empty poll. Default 1ms.
func WithPollIdle(d time.Duration) Option {
	return func(cfg *samplerConfig) {
		cfg.pollIdle = d
	}
}

// withOutput substitutes the audio engine; used by tests.
func withOutput(o voice.Output) Option {
	return func(cfg *samplerConfig) {
		cfg.output = o
	}
}

// withReporter injects a bare diagnostics sink; used by tests.
func withReporter(r diag.Reporter) Option {
	return func(cfg *samplerConfig) {
		cfg.reporter = r
	}
}

// Sampler owns the note library and the voice pool. The library is
// published behind an atomic pointer: SetNoteMap builds a complete
// replacement and swaps it in, so the dispatch path never sees a
// half-built mapping.
type Sampler struct {
	sampleRate int
	channels   int
	policy     pitch.Policy
	pollIdle   time.Duration
	rep        diag.Reporter
	pool       *voice.Pool

	mu  sync.Mutex // serializes rebuilds
	lib atomic.Pointer[library.Library]
}

func NewSampler(sampleRate int, opts ...Option) (*Sampler, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultSamplerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	policy, err := pitch.ParsePolicy(string(cfg.fill))
	if err != nil {
		return nil, err
	}
	if cfg.channels != 1 && cfg.channels != 2 {
		return nil, errors.New("channels must be 1 or 2")
	}
	out := cfg.output
	if out == nil {
		out, err = audio.NewOutput(sampleRate, cfg.bufferFrames)
		if err != nil {
			return nil, err
		}
	}
	s := &Sampler{
		sampleRate: sampleRate,
		channels:   cfg.channels,
		policy:     policy,
		pollIdle:   cfg.pollIdle,
		rep:        cfg.reporter,
		pool:       voice.NewPool(cfg.voices, out, cfg.reporter),
	}
	s.lib.Store(library.FromBuffers(nil))
	return s, nil
}

// SetNoteMap decodes the assignment, runs the directional fill over the
// piano range, and publishes the resulting library atomically. Entries
// that fail to decode are reported and skipped; SetNoteMap itself always
// succeeds with whatever subset survived. Prior derived buffers are
// discarded, never patched incrementally.
func (s *Sampler) SetNoteMap(noteMap map[int]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lib.Store(library.Build(noteMap, s.policy, s.sampleRate, s.channels, s.rep))
}

// Coverage returns the covered note numbers in ascending order.
func (s *Sampler) Coverage() []int {
	return s.lib.Load().Notes()
}

// ActiveVoices returns how many voices are currently playing.
func (s *Sampler) ActiveVoices() int {
	return s.pool.Active()
}

// Voices returns the pool capacity.
func (s *Sampler) Voices() int {
	return s.pool.Capacity()
}

// OnEvent dispatches a single event. Only note-on with nonzero velocity
// triggers playback; a note-off never stops a voice already sounding
// (playback is fire-and-forget to natural completion). A trigger for an
// uncovered note is a silent no-op; with no free voice it is dropped.
func (s *Sampler) OnEvent(ev Event) {
	if !ev.On || ev.Velocity == 0 {
		return
	}
	buf, ok := s.lib.Load().Lookup(int(ev.Note))
	if !ok {
		s.rep.Report(diag.Event{Kind: diag.NoteNotFound, Note: int(ev.Note)})
		return
	}
	s.pool.Trigger(int(ev.Note), buf)
}

// Run drives the dispatch loop until ctx is done: poll the source, and
// when an event is pending dispatch it, otherwise yield briefly. Events
// are handled strictly in arrival order.
func (s *Sampler) Run(ctx context.Context, src EventSource) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if ev, ok := src.Poll(); ok {
			s.OnEvent(ev)
			continue
		}
		time.Sleep(s.pollIdle)
	}
}

// MIDISource adapts a MIDI input port to the EventSource interface.
func MIDISource(src *midiio.Source) EventSource {
	return midiSource{src: src}
}

type midiSource struct {
	src *midiio.Source
}

func (m midiSource) Poll() (Event, bool) {
	e, ok := m.src.Poll()
	if !ok {
		return Event{}, false
	}
	return Event{On: e.On, Note: e.Note, Velocity: e.Velocity}, true
}
