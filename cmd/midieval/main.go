package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/dhudetz/midieval"
	"github.com/dhudetz/midieval/internal/config"
	"github.com/dhudetz/midieval/internal/midiio"
)

func main() {
	var (
		configPath = flag.String("config", "midieval.json", "path to the sampler config file")
		portName   = flag.String("port", "", "MIDI input port name (default: first available)")
		listPorts  = flag.Bool("list-ports", false, "list MIDI ports and exit")
		watch      = flag.Bool("watch", true, "reload the note map when the config file changes")
		verbose    = flag.Bool("verbose", false, "debug-level logging")
	)
	flag.Parse()

	if *listPorts {
		printPorts()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	s, err := midieval.NewSampler(cfg.MixerFrequency,
		midieval.WithFillPolicy(midieval.FillPolicy(cfg.PitchShiftFill)),
		midieval.WithVoices(cfg.NumVoices),
		midieval.WithChannels(cfg.MixerChannels),
		midieval.WithBufferFrames(cfg.MixerBufferFrames),
		midieval.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}
	s.SetNoteMap(cfg.NoteMap)
	fmt.Printf("library covers %d notes (%d voices)\n", len(s.Coverage()), s.Voices())

	src, err := midiio.OpenSource(*portName)
	if err != nil {
		log.Fatal(err)
	}
	defer src.Close()
	defer midiio.CloseDriver()
	fmt.Printf("listening on %q\n", src.Port())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *watch {
		w, err := config.NewWatcher(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		defer w.Close()
		go func() {
			for {
				select {
				case next := <-w.Configs():
					s.SetNoteMap(next.NoteMap)
				case err := <-w.Errors():
					logger.Warn("config reload failed", zap.Error(err))
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	if err := s.Run(ctx, midieval.MIDISource(src)); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printPorts() {
	ins, outs := midiio.Ports()
	fmt.Println("inputs:")
	for _, p := range ins {
		fmt.Printf("  %s\n", p)
	}
	fmt.Println("outputs:")
	for _, p := range outs {
		fmt.Printf("  %s\n", p)
	}
}
