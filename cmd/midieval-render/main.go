// midieval-render builds a note library from a config file and writes
// every covered note to a WAV file, one per note. Useful for auditioning
// the pitch fill without a MIDI device or audio output.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dhudetz/midieval"
	"github.com/dhudetz/midieval/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "midieval.json", "path to the sampler config file")
		outDir     = flag.String("out", "rendered", "output directory for WAV files")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	rendered, err := midieval.RenderNoteMap(cfg.NoteMap,
		midieval.FillPolicy(cfg.PitchShiftFill), cfg.MixerFrequency, cfg.MixerChannels)
	if err != nil {
		log.Fatal(err)
	}
	if len(rendered) == 0 {
		log.Fatal("no notes covered; check note_map paths")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal(err)
	}
	for note, wav := range rendered {
		path := filepath.Join(*outDir, fmt.Sprintf("note-%03d.wav", note))
		if err := os.WriteFile(path, wav, 0o644); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Printf("wrote %d notes to %s\n", len(rendered), *outDir)
}
