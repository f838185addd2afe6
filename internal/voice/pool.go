// Package voice manages the fixed-capacity pool of playback voices.
package voice

import (
	"sync/atomic"
	"time"

	"github.com/dhudetz/midieval/internal/diag"
	"github.com/dhudetz/midieval/internal/pcm"
)

// DefaultCapacity is the voice pool size when none is configured.
const DefaultCapacity = 64

// Output starts playback of a buffer on the underlying audio engine and
// hands back a Handle to observe it with.
type Output interface {
	Start(buf *pcm.Buffer) (Handle, error)
}

// Handle is one in-flight playback. Playing reports false once the
// buffer is exhausted; Close releases engine resources.
type Handle interface {
	Playing() bool
	Close() error
}

// Pool is the fixed set of voices. Trigger is called only from the
// dispatch loop; a voice is returned to the pool asynchronously when its
// playback completes, so slot state is atomic.
type Pool struct {
	out   Output
	rep   diag.Reporter
	slots []*slot
	sweep time.Duration
}

type slot struct {
	busy atomic.Bool
}

func NewPool(capacity int, out Output, rep diag.Reporter) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	slots := make([]*slot, capacity)
	for i := range slots {
		slots[i] = &slot{}
	}
	return &Pool{out: out, rep: rep, slots: slots, sweep: 5 * time.Millisecond}
}

func (p *Pool) Capacity() int { return len(p.slots) }

// Active returns the number of voices currently playing.
func (p *Pool) Active() int {
	n := 0
	for _, s := range p.slots {
		if s.busy.Load() {
			n++
		}
	}
	return n
}

// Trigger claims a free voice and starts buf on it, playing from the
// first frame to natural completion. With no free voice the trigger is
// dropped — never queued, never stealing a playing voice — and a
// diagnostic is reported. Returns whether a voice was started.
func (p *Pool) Trigger(note int, buf *pcm.Buffer) bool {
	s := p.claim()
	if s == nil {
		p.rep.Report(diag.Event{Kind: diag.VoicePoolExhausted, Note: note})
		return false
	}
	h, err := p.out.Start(buf)
	if err != nil {
		s.busy.Store(false)
		p.rep.Report(diag.Event{Kind: diag.PlaybackError, Note: note, Err: err})
		return false
	}
	go p.watch(s, h)
	return true
}

func (p *Pool) claim() *slot {
	for _, s := range p.slots {
		if s.busy.CompareAndSwap(false, true) {
			return s
		}
	}
	return nil
}

// watch frees the slot when the engine reports playback done.
func (p *Pool) watch(s *slot, h Handle) {
	for h.Playing() {
		time.Sleep(p.sweep)
	}
	_ = h.Close()
	s.busy.Store(false)
}
