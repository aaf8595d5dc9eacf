package exporter

import (
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/notewright/audiocore/internal/audio/music"
	"github.com/notewright/audiocore/internal/audio/synth"
)

// WriteMid writes a Standard MIDI File (format 1) for the tracks of m,
// one gomidi smf.Track per track whose channel has an assigned program;
// track mute/solo flags are not consulted. Grounded on
// original_source/audio/src/exporter.rs: Exporter::mid, adapted from
// midly's borrowed Track/TrackEvent model to gomidi/midi/v2/smf's
// append-only smf.Track.
func WriteMid(path string, m *music.Music, bpm uint32, programs map[uint8]synth.Program, settings Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	file := smf.NewSMF1()
	file.TimeFormat = smf.MetricTicks(music.PPQ)

	first := true
	for _, track := range m.MidiTracks {
		program, ok := programs[track.Channel]
		if !ok {
			continue
		}

		var t smf.Track
		if first {
			t = append(t, smf.Event{Delta: 0, Message: smf.Message(smf.MetaText(settings.Metadata.Title))})
			t = append(t, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTempo(60000000.0 / float64(bpm)))})
			t = append(t, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTimeSig(4, 2, 24, 8))})
			if settings.Copyright && settings.Metadata.Artist != nil {
				t = append(t, smf.Event{Delta: 0, Message: smf.Message(smf.MetaCopyright(copyrightLine(*settings.Metadata.Artist)))})
			}
			first = false
		}

		t = append(t, smf.Event{Delta: 0, Message: smf.Message(smf.MetaInstrument(program.Name))})
		t = append(t, smf.Event{Delta: 0, Message: midi.ProgramChange(track.Channel, uint8(program.Preset))})

		notes := make([]music.Note, len(track.Notes))
		copy(notes, track.Notes)
		sortNotesByStart(notes)
		appendNoteEvents(&t, track.Channel, notes)

		t = append(t, smf.Event{Delta: 0, Message: smf.EOT})
		file.Add(t)
	}

	return writeSMF(file, f)
}

// sortNotesByStart orders notes by Note.Start, matching
// Exporter::mid's notes.sort_by(|a, b| a.start.cmp(&b.start)).
func sortNotesByStart(notes []music.Note) {
	for i := 1; i < len(notes); i++ {
		for j := i; j > 0 && notes[j].Start < notes[j-1].Start; j-- {
			notes[j], notes[j-1] = notes[j-1], notes[j]
		}
	}
}

// appendNoteEvents walks every pulse between the first note-on and the
// last note-off, emitting delta-timed NoteOn/NoteOff events.
func appendNoteEvents(t *smf.Track, channel uint8, notes []music.Note) {
	if len(notes) == 0 {
		return
	}
	t0 := notes[0].Start
	t1 := notes[0].End
	for _, n := range notes {
		if n.End > t1 {
			t1 = n.End
		}
	}

	dt := t0
	for tick := t0; tick < t1; tick++ {
		for _, n := range notes {
			if n.Start == tick {
				delta := uint32(dt)
				dt = 0
				*t = append(*t, smf.Event{Delta: delta, Message: midi.NoteOn(channel, n.Key, n.Velocity)})
			}
		}
		for _, n := range notes {
			if n.End == tick {
				delta := uint32(dt)
				dt = 0
				*t = append(*t, smf.Event{Delta: delta, Message: midi.NoteOff(channel, n.Key)})
			}
		}
		dt++
	}
}

func writeSMF(file *smf.SMF, w io.Writer) error {
	_, err := file.WriteTo(w)
	return err
}
