package pcm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFormat indicates a file extension no decoder handles.
var ErrUnsupportedFormat = errors.New("pcm: unsupported sample format")

// Decode reads an audio file into a Buffer, picking the decoder from the
// file extension. Supported: .wav, .mp3.
func Decode(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf *Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		buf, err = decodeWAV(f)
	case ".mp3":
		buf, err = decodeMP3(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return buf, nil
}

func decodeWAV(f *os.File) (*Buffer, error) {
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, errors.New("pcm: not a valid wav file")
	}
	ib, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("pcm: wav decode: %w", err)
	}
	data := make([]int16, len(ib.Data))
	for i, v := range ib.Data {
		data[i] = sampleToInt16(v, int(d.BitDepth))
	}
	return &Buffer{
		Rate:     ib.Format.SampleRate,
		Channels: ib.Format.NumChannels,
		Data:     data,
	}, nil
}

// sampleToInt16 rescales a sample decoded at the given bit depth to
// signed 16-bit. 8-bit WAV is unsigned by convention.
func sampleToInt16(v, bitDepth int) int16 {
	switch bitDepth {
	case 8:
		return int16((v - 128) << 8)
	case 16:
		return int16(v)
	case 24:
		return int16(v >> 8)
	case 32:
		return int16(v >> 16)
	default:
		return int16(v)
	}
}

// decodeMP3 decodes via go-mp3, which always yields interleaved stereo
// signed 16-bit little-endian samples.
func decodeMP3(f *os.File) (*Buffer, error) {
	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("pcm: mp3 decode: %w", err)
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("pcm: mp3 read: %w", err)
	}
	data := make([]int16, len(raw)/2)
	for i := range data {
		data[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return &Buffer{
		Rate:     d.SampleRate(),
		Channels: 2,
		Data:     data,
	}, nil
}
