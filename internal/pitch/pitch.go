// Package pitch derives sample buffers for unassigned notes by
// semitone-ratio resampling of root buffers.
//
// The shift is a plain speed change: resampling to fewer (or more)
// frames raises (or lowers) pitch and shortens (or lengthens) playback
// in the same stroke. That conflation is a deliberate quality tradeoff,
// not something to correct here.
package pitch

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhudetz/midieval/internal/diag"
	"github.com/dhudetz/midieval/internal/pcm"
)

// Policy selects which root supplies the derived buffer for each gap
// between assigned notes.
type Policy int

const (
	// Off disables derivation; the library holds decoded roots only.
	Off Policy = iota
	// Forward fills each gap upward from the root below it. Notes below
	// the lowest root stay uncovered.
	Forward
	// Backward fills each gap downward from the root above it. Notes
	// above the highest root stay uncovered.
	Backward
)

func (p Policy) String() string {
	switch p {
	case Off:
		return "off"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "off", "":
		return Off, nil
	case "forward":
		return Forward, nil
	case "backward":
		return Backward, nil
	default:
		return Off, fmt.Errorf("pitch: unknown fill policy %q", s)
	}
}

// Ratio maps a semitone shift to a speed factor: 2^(s/12). Positive
// shifts play faster (higher pitch, shorter buffer).
func Ratio(semitones int) float64 {
	return math.Pow(2, float64(semitones)/12)
}

// Resample derives a buffer pitched semitones away from src. The result
// has floor(F / 2^(s/12)) frames, same rate and channel layout.
func Resample(src *pcm.Buffer, semitones int) *pcm.Buffer {
	n := int(float64(src.Frames()) / Ratio(semitones))
	return src.ResampleFrames(n)
}

// Fill computes the dense note mapping for [lo, hi] from the sparse root
// set. The returned map contains every root plus one derived buffer per
// note the policy covers; roots are never overwritten. An empty root set
// yields an empty map. Roots with zero frames are kept in the mapping
// but never used as a derivation source; each is reported once.
func Fill(policy Policy, roots map[int]*pcm.Buffer, lo, hi int, rep diag.Reporter) map[int]*pcm.Buffer {
	out := make(map[int]*pcm.Buffer, len(roots))
	for n, b := range roots {
		out[n] = b
	}
	if policy == Off || len(roots) == 0 {
		return out
	}

	notes := make([]int, 0, len(roots))
	for n := range roots {
		notes = append(notes, n)
	}
	sort.Ints(notes)

	usable := func(n int) bool {
		if roots[n].Frames() == 0 {
			rep.Report(diag.Event{Kind: diag.MalformedBuffer, Note: n})
			return false
		}
		return true
	}

	switch policy {
	case Forward:
		for i, root := range notes {
			next := hi + 1
			if i+1 < len(notes) {
				next = notes[i+1]
			}
			if !usable(root) {
				continue
			}
			for m := root + 1; m < next && m <= hi; m++ {
				if m < lo {
					continue
				}
				if _, ok := out[m]; ok {
					continue
				}
				out[m] = Resample(roots[root], m-root)
			}
		}
	case Backward:
		for i := len(notes) - 1; i >= 0; i-- {
			root := notes[i]
			prev := lo - 1
			if i > 0 {
				prev = notes[i-1]
			}
			if !usable(root) {
				continue
			}
			for m := root - 1; m > prev && m >= lo; m-- {
				if m > hi {
					continue
				}
				if _, ok := out[m]; ok {
					continue
				}
				out[m] = Resample(roots[root], m-root)
			}
		}
	}
	return out
}
