// Package library builds and holds the dense note-to-buffer mapping the
// dispatcher reads. A Library is immutable once built; reconfiguration
// builds a fresh one and swaps it in whole.
package library

import (
	"errors"
	"io/fs"
	"sort"

	"github.com/dhudetz/midieval/internal/diag"
	"github.com/dhudetz/midieval/internal/pcm"
	"github.com/dhudetz/midieval/internal/pitch"
)

// Fill range: the piano-active subrange of MIDI notes.
const (
	RangeLow  = 21
	RangeHigh = 108
)

// Library maps note numbers to playable buffers.
type Library struct {
	notes map[int]*pcm.Buffer
}

// Lookup returns the buffer for a note, if the library covers it.
func (l *Library) Lookup(note int) (*pcm.Buffer, bool) {
	b, ok := l.notes[note]
	return b, ok
}

// Size returns the number of covered notes.
func (l *Library) Size() int { return len(l.notes) }

// Notes returns the covered note numbers in ascending order.
func (l *Library) Notes() []int {
	out := make([]int, 0, len(l.notes))
	for n := range l.notes {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Load decodes a sparse note-to-file assignment into root buffers,
// converted to the given rate and channel count. Entries that cannot be
// decoded are reported and omitted; a failure never aborts the batch.
func Load(assignment map[int]string, rate, channels int, rep diag.Reporter) map[int]*pcm.Buffer {
	roots := make(map[int]*pcm.Buffer, len(assignment))
	for note, path := range assignment {
		buf, err := pcm.Decode(path)
		if err != nil {
			rep.Report(decodeFailure(note, path, err))
			continue
		}
		roots[note] = buf.Convert(rate, channels)
	}
	return roots
}

func decodeFailure(note int, path string, err error) diag.Event {
	kind := diag.DecodeError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = diag.FileNotFound
	case errors.Is(err, pcm.ErrMalformedBuffer):
		kind = diag.MalformedBuffer
	}
	return diag.Event{Kind: kind, Note: note, Path: path, Err: err}
}

// Build decodes the assignment and runs the directional fill over
// [RangeLow, RangeHigh], producing a complete Library. Always succeeds;
// the result covers whatever subset survived decoding plus its fill.
func Build(assignment map[int]string, policy pitch.Policy, rate, channels int, rep diag.Reporter) *Library {
	roots := Load(assignment, rate, channels, rep)
	lib := &Library{notes: pitch.Fill(policy, roots, RangeLow, RangeHigh, rep)}
	rep.Report(diag.Event{Kind: diag.LibraryRebuilt, Size: lib.Size()})
	return lib
}

// FromBuffers wraps an already-built mapping, for callers that construct
// buffers without decoding files.
func FromBuffers(notes map[int]*pcm.Buffer) *Library {
	return &Library{notes: notes}
}
