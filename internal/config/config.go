// Package config loads the sampler configuration file and watches it for
// changes.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dhudetz/midieval/internal/pitch"
	"github.com/dhudetz/midieval/internal/voice"
)

// Config is the full configuration surface. NoteMap assigns source files
// to root notes; everything else shapes the mixer and the voice pool.
type Config struct {
	NoteMap           map[int]string `json:"note_map"`
	PitchShiftFill    string         `json:"pitch_shift_fill"`
	MixerFrequency    int            `json:"mixer_frequency"`
	MixerBitDepth     int            `json:"mixer_bit_depth"`
	MixerChannels     int            `json:"mixer_channels"`
	MixerBufferFrames int            `json:"mixer_buffer_frames"`
	NumVoices         int            `json:"num_voices"`
}

// Default returns the configuration used when fields are absent.
func Default() Config {
	return Config{
		PitchShiftFill:    "off",
		MixerFrequency:    44100,
		MixerBitDepth:     16,
		MixerChannels:     2,
		MixerBufferFrames: 512,
		NumVoices:         voice.DefaultCapacity,
	}
}

// Load reads a JSON config file over the defaults and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges. Only 16-bit signed output is supported.
func (c Config) Validate() error {
	if _, err := pitch.ParsePolicy(c.PitchShiftFill); err != nil {
		return err
	}
	if c.MixerFrequency <= 0 {
		return fmt.Errorf("mixer_frequency must be positive, got %d", c.MixerFrequency)
	}
	if c.MixerBitDepth != 16 {
		return fmt.Errorf("mixer_bit_depth must be 16, got %d", c.MixerBitDepth)
	}
	if c.MixerChannels != 1 && c.MixerChannels != 2 {
		return fmt.Errorf("mixer_channels must be 1 or 2, got %d", c.MixerChannels)
	}
	if c.MixerBufferFrames < 0 {
		return fmt.Errorf("mixer_buffer_frames must not be negative, got %d", c.MixerBufferFrames)
	}
	if c.NumVoices <= 0 {
		return fmt.Errorf("num_voices must be positive, got %d", c.NumVoices)
	}
	for note := range c.NoteMap {
		if note < 0 || note > 127 {
			return fmt.Errorf("note_map key %d outside MIDI range 0..127", note)
		}
	}
	return nil
}

// FillPolicy returns the parsed pitch fill policy. Call after Validate.
func (c Config) FillPolicy() pitch.Policy {
	p, _ := pitch.ParsePolicy(c.PitchShiftFill)
	return p
}
