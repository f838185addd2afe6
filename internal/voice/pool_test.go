package voice

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dhudetz/midieval/internal/diag"
	"github.com/dhudetz/midieval/internal/pcm"
)

type fakeHandle struct {
	done   atomic.Bool
	closed atomic.Bool
}

func (h *fakeHandle) Playing() bool { return !h.done.Load() }
func (h *fakeHandle) Close() error {
	h.closed.Store(true)
	return nil
}

type fakeOutput struct {
	mu      sync.Mutex
	handles []*fakeHandle
	err     error
}

func (o *fakeOutput) Start(buf *pcm.Buffer) (Handle, error) {
	if o.err != nil {
		return nil, o.err
	}
	h := &fakeHandle{}
	o.mu.Lock()
	o.handles = append(o.handles, h)
	o.mu.Unlock()
	return h, nil
}

func (o *fakeOutput) finishAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, h := range o.handles {
		h.done.Store(true)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []diag.Event
}

func (r *recorder) Report(ev diag.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(k diag.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}

func testBuffer() *pcm.Buffer {
	return &pcm.Buffer{Rate: 44100, Channels: 2, Data: make([]int16, 64)}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestPoolBoundAndOverflowDrop(t *testing.T) {
	out := &fakeOutput{}
	rec := &recorder{}
	p := NewPool(4, out, rec)

	for i := 0; i < 4; i++ {
		if !p.Trigger(60+i, testBuffer()) {
			t.Fatalf("trigger %d should start a voice", i)
		}
	}
	if got := p.Active(); got != 4 {
		t.Fatalf("active voices = %d, want 4", got)
	}

	// The (capacity+1)-th trigger is dropped, not queued.
	if p.Trigger(80, testBuffer()) {
		t.Fatal("trigger beyond capacity should be dropped")
	}
	if got := p.Active(); got != 4 {
		t.Fatalf("active voices after overflow = %d, want 4", got)
	}
	if got := rec.count(diag.VoicePoolExhausted); got != 1 {
		t.Fatalf("exhausted reports = %d, want 1", got)
	}
}

func TestVoicesReturnOnCompletion(t *testing.T) {
	out := &fakeOutput{}
	p := NewPool(2, out, diag.Nop())
	p.sweep = time.Millisecond

	p.Trigger(60, testBuffer())
	p.Trigger(61, testBuffer())
	out.finishAll()

	waitFor(t, func() bool { return p.Active() == 0 })
	for _, h := range out.handles {
		if !h.closed.Load() {
			t.Fatal("completed handle should be closed")
		}
	}

	// Freed voices are reusable.
	if !p.Trigger(62, testBuffer()) {
		t.Fatal("freed voice should accept a new trigger")
	}
}

func TestStartErrorFreesSlot(t *testing.T) {
	out := &fakeOutput{err: errors.New("device gone")}
	rec := &recorder{}
	p := NewPool(1, out, rec)

	if p.Trigger(60, testBuffer()) {
		t.Fatal("trigger should fail when the engine refuses")
	}
	if got := p.Active(); got != 0 {
		t.Fatalf("active voices = %d, want 0", got)
	}
	if got := rec.count(diag.PlaybackError); got != 1 {
		t.Fatalf("playback-error reports = %d, want 1", got)
	}

	// The slot must be claimable again.
	out.err = nil
	if !p.Trigger(60, testBuffer()) {
		t.Fatal("slot should be free after a failed start")
	}
}

func TestDefaultCapacity(t *testing.T) {
	p := NewPool(0, &fakeOutput{}, diag.Nop())
	if p.Capacity() != DefaultCapacity {
		t.Fatalf("capacity = %d, want %d", p.Capacity(), DefaultCapacity)
	}
}
