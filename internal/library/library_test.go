package library

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dhudetz/midieval/internal/diag"
	"github.com/dhudetz/midieval/internal/pitch"
)

func writeWAV(t *testing.T, path string, rate, channels, frames int) {
	t.Helper()
	dataSize := frames * channels * 2
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(rate))
	binary.LittleEndian.PutUint32(out[28:], uint32(rate*channels*2))
	binary.LittleEndian.PutUint16(out[32:], uint16(channels*2))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i := 0; i < frames*channels; i++ {
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(int16(i%500)))
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatal(err)
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

func (r *recorder) kinds() map[diag.Kind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[diag.Kind]int{}
	for _, ev := range r.events {
		out[ev.Kind]++
	}
	return out
}

func TestLoadConvertsToMixerFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "root.wav")
	writeWAV(t, path, 22050, 1, 1000)

	roots := Load(map[int]string{60: path}, 44100, 2, diag.Nop())
	buf, ok := roots[60]
	if !ok {
		t.Fatal("root did not load")
	}
	if buf.Rate != 44100 || buf.Channels != 2 {
		t.Fatalf("format = %d Hz %d ch, want 44100 Hz 2 ch", buf.Rate, buf.Channels)
	}
	if buf.Frames() != 2000 {
		t.Fatalf("frames = %d, want 2000", buf.Frames())
	}
}

func TestLoadSkipsFailingEntries(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.wav")
	writeWAV(t, good, 44100, 2, 500)
	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("RIFFnope"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	roots := Load(map[int]string{
		60: good,
		64: filepath.Join(dir, "missing.wav"),
		67: garbage,
	}, 44100, 2, rec)

	if len(roots) != 1 {
		t.Fatalf("loaded %d roots, want 1", len(roots))
	}
	if _, ok := roots[60]; !ok {
		t.Fatal("surviving root missing")
	}
	kinds := rec.kinds()
	if kinds[diag.FileNotFound] != 1 {
		t.Fatalf("file-not-found reports = %d, want 1", kinds[diag.FileNotFound])
	}
	if kinds[diag.DecodeError] != 1 {
		t.Fatalf("decode-error reports = %d, want 1", kinds[diag.DecodeError])
	}
}

func TestBuildOffSizeLaw(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	writeWAV(t, a, 44100, 2, 300)
	writeWAV(t, b, 44100, 2, 300)

	lib := Build(map[int]string{60: a, 72: b}, pitch.Off, 44100, 2, diag.Nop())
	if lib.Size() != 2 {
		t.Fatalf("off-policy library size = %d, want 2", lib.Size())
	}
}

func TestBuildForwardSurvivesDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	writeWAV(t, a, 44100, 2, 300)

	lib := Build(map[int]string{
		60: a,
		64: filepath.Join(dir, "missing.wav"),
	}, pitch.Forward, 44100, 2, diag.Nop())

	// Only note 60 survived, so forward fill covers 60..108 in one run.
	if want := 108 - 60 + 1; lib.Size() != want {
		t.Fatalf("library size = %d, want %d", lib.Size(), want)
	}
	if _, ok := lib.Lookup(64); !ok {
		t.Fatal("note 64 should be covered by fill from 60")
	}
	if _, ok := lib.Lookup(59); ok {
		t.Fatal("note 59 below the surviving root should be uncovered")
	}
}

func TestBuildReportsRebuild(t *testing.T) {
	rec := &recorder{}
	Build(nil, pitch.Forward, 44100, 2, rec)
	if rec.kinds()[diag.LibraryRebuilt] != 1 {
		t.Fatal("expected a library-rebuilt report")
	}
}

func TestNotesSorted(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	writeWAV(t, a, 44100, 2, 100)
	lib := Build(map[int]string{72: a, 60: a, 66: a}, pitch.Off, 44100, 2, diag.Nop())

	notes := lib.Notes()
	want := []int{60, 66, 72}
	if len(notes) != len(want) {
		t.Fatalf("notes = %v, want %v", notes, want)
	}
	for i := range want {
		if notes[i] != want[i] {
			t.Fatalf("notes = %v, want %v", notes, want)
		}
	}
}
