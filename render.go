package midieval

import (
	"encoding/binary"

	"github.com/dhudetz/midieval/internal/diag"
	"github.com/dhudetz/midieval/internal/library"
	"github.com/dhudetz/midieval/internal/pitch"
)

// RenderNoteMap builds a note library offline, without an audio device:
// it decodes the note map, runs the fill policy over the piano range,
// and returns each covered note as a complete WAV file image. Entries
// that fail to decode are skipped, exactly as in live loading.
func RenderNoteMap(noteMap map[int]string, fill FillPolicy, sampleRate, channels int) (map[int][]byte, error) {
	policy, err := pitch.ParsePolicy(string(fill))
	if err != nil {
		return nil, err
	}
	lib := library.Build(noteMap, policy, sampleRate, channels, diag.Nop())
	out := make(map[int][]byte, lib.Size())
	for _, n := range lib.Notes() {
		buf, _ := lib.Lookup(n)
		out[n] = EncodeWAVInt16LE(buf.Data, sampleRate, channels)
	}
	return out, nil
}

// EncodeWAVInt16LE wraps interleaved signed 16-bit samples in a RIFF/WAVE
// header (PCM format 1).
func EncodeWAVInt16LE(samples []int16, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 2
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(s))
	}
	return out
}
