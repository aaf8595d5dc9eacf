// Command audioengine drives the audio engine headlessly from the
// command line: load a SoundFont, build a short demo track, and either
// play it in realtime or export it to disk. Grounded on
// schollz-221e/main.go's flag/log/pprof conventions, replacing its
// bubbletea TUI entry point with a non-interactive driver appropriate
// for this engine's scope.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/notewright/audiocore/internal/audio/conn"
	"github.com/notewright/audiocore/internal/audio/exporter"
	"github.com/notewright/audiocore/internal/audio/music"
)

func main() {
	var soundFontPath string
	var channel uint
	var bpm uint
	var exportPath string
	var exportFormat string
	var cpuProfile string

	flag.StringVar(&soundFontPath, "soundfont", "", "Path to a .sf2 SoundFont file")
	flag.UintVar(&channel, "channel", 0, "MIDI channel to play the demo track on")
	flag.UintVar(&bpm, "bpm", 120, "Playback tempo in beats per minute")
	flag.StringVar(&exportPath, "export", "", "If set, export the demo track to this path instead of playing it live")
	flag.StringVar(&exportFormat, "export-format", "wav", "Export format: wav, mid, mp3, ogg, flac")
	flag.StringVar(&cpuProfile, "cpu-profile", "", "If set, write a CPU profile to this path")
	flag.Parse()

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Printf("could not create CPU profile: %v", err)
		} else if err := pprof.StartCPUProfile(f); err != nil {
			log.Printf("could not start CPU profile: %v", err)
		} else {
			defer pprof.StopCPUProfile()
		}
	}

	if soundFontPath == "" {
		log.Fatal("a -soundfont path is required")
	}

	c, err := conn.New()
	if err != nil {
		log.Printf("realtime audio output unavailable: %v", err)
	}

	if err := c.DoCommands([]conn.Command{
		conn.LoadSoundFont{Channel: uint8(channel), Path: soundFontPath},
	}); err != nil {
		log.Fatalf("failed to load soundfont: %v", err)
	}

	m := demoMusic(uint8(channel))
	t := music.Time{BPM: uint32(bpm), Framerate: music.DefaultFramerate}

	if exportPath != "" {
		settings := exporter.DefaultSettings()
		settings.Format = formatFromName(exportFormat)
		settings.Metadata.Title = "audiocore demo"
		if err := c.StartExport(m, t, settings, exportPath); err != nil {
			log.Fatalf("export failed: %v", err)
		}
		log.Printf("exporting to %s", exportPath)
		// A .mid export is written synchronously by StartExport.
		if settings.Format != exporter.FormatMid {
			waitForExport(c)
		}
		log.Println("export complete")
		return
	}

	setupSignalHandler(c)
	c.SetMusic(m, t, 0)
	log.Println("playing demo track, press Ctrl+C to stop")
	select {}
}

func demoMusic(channel uint8) *music.Music {
	track := music.NewMidiTrack(channel)
	track.Notes = []music.Note{
		{Key: 60, Velocity: 100, Start: 0, End: music.PPQ},
		{Key: 64, Velocity: 100, Start: music.PPQ, End: 2 * music.PPQ},
		{Key: 67, Velocity: 100, Start: 2 * music.PPQ, End: 4 * music.PPQ},
	}
	return &music.Music{MidiTracks: []music.MidiTrack{track}}
}

func formatFromName(name string) exporter.Format {
	switch name {
	case "mid":
		return exporter.FormatMid
	case "mp3":
		return exporter.FormatMP3
	case "ogg":
		return exporter.FormatOgg
	case "flac":
		return exporter.FormatFlac
	default:
		return exporter.FormatWav
	}
}

func waitForExport(c *conn.Conn) {
	for c.ExportState() != exporter.StateDone {
		time.Sleep(50 * time.Millisecond)
	}
}

func setupSignalHandler(c *conn.Conn) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("shutting down")
		pprof.StopCPUProfile()
		os.Exit(0)
	}()
}
