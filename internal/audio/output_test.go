package audio

import (
	"testing"

	"github.com/dhudetz/midieval/internal/pcm"
)

func TestInterleaveStereoFromStereo(t *testing.T) {
	buf := &pcm.Buffer{Rate: 44100, Channels: 2, Data: []int16{1, -1, 256, -256}}
	out := interleaveStereo(buf)
	if len(out) != 8 {
		t.Fatalf("byte length = %d, want 8", len(out))
	}
	// s16le: 1 → 01 00, -1 → ff ff, 256 → 00 01, -256 → 00 ff
	want := []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x01, 0x00, 0xff}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, out[i], want[i])
		}
	}
}

func TestInterleaveStereoDuplicatesMono(t *testing.T) {
	buf := &pcm.Buffer{Rate: 44100, Channels: 1, Data: []int16{42, 43}}
	out := interleaveStereo(buf)
	if len(out) != 8 {
		t.Fatalf("byte length = %d, want 8", len(out))
	}
	if out[0] != out[2] || out[1] != out[3] {
		t.Fatal("mono frame should land on both channels")
	}
	if out[0] != 42 || out[4] != 43 {
		t.Fatalf("sample bytes = %d,%d, want 42,43", out[0], out[4])
	}
}
