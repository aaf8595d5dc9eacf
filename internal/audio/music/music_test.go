package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMidiTrackGetEnd(t *testing.T) {
	t.Run("empty track has no end", func(t *testing.T) {
		tr := NewMidiTrack(0)
		_, ok := tr.GetEnd()
		assert.False(t, ok)
	})

	t.Run("returns highest note end", func(t *testing.T) {
		tr := NewMidiTrack(0)
		tr.Notes = []Note{
			{Key: 60, Start: 0, End: 480},
			{Key: 62, Start: 480, End: 1920},
			{Key: 64, Start: 1000, End: 1200},
		}
		end, ok := tr.GetEnd()
		assert.True(t, ok)
		assert.Equal(t, uint64(1920), end)
	})
}

func TestMidiTrackPlaybackNotes(t *testing.T) {
	tr := NewMidiTrack(0)
	tr.Gain = 64
	tr.Notes = []Note{
		{Key: 62, Velocity: 100, Start: 480, End: 960},
		{Key: 60, Velocity: 100, Start: 0, End: 480},
		{Key: 64, Velocity: 100, Start: 480, End: 500},
	}

	notes := tr.PlaybackNotes(480)
	assert.Len(t, notes, 2)
	// sorted by (start, end, key): End=500 before End=960 at same start.
	assert.Equal(t, uint8(64), notes[0].Key)
	assert.Equal(t, uint8(62), notes[1].Key)
	// velocity scaled by gain/MaxVolume.
	assert.Equal(t, ScaleVelocity(100, 64), notes[0].Velocity)
}

func TestMusicGetSelectedTrack(t *testing.T) {
	m := Music{MidiTracks: []MidiTrack{NewMidiTrack(0), NewMidiTrack(1)}}
	assert.Nil(t, m.GetSelectedTrack())

	idx := 1
	m.Selected = &idx
	sel := m.GetSelectedTrack()
	assert.NotNil(t, sel)
	assert.Equal(t, uint8(1), sel.Channel)

	outOfRange := 5
	m.Selected = &outOfRange
	assert.Nil(t, m.GetSelectedTrack())
}

func TestMusicPlayableTracks(t *testing.T) {
	t.Run("no solo plays every unmuted track", func(t *testing.T) {
		m := Music{MidiTracks: []MidiTrack{NewMidiTrack(0), NewMidiTrack(1)}}
		m.MidiTracks[1].Mute = true
		playable := m.PlayableTracks()
		assert.Len(t, playable, 1)
		assert.Equal(t, uint8(0), playable[0].Channel)
	})

	t.Run("solo overrides mute state", func(t *testing.T) {
		m := Music{MidiTracks: []MidiTrack{NewMidiTrack(0), NewMidiTrack(1), NewMidiTrack(2)}}
		m.MidiTracks[1].Solo = true
		m.MidiTracks[2].Mute = true
		playable := m.PlayableTracks()
		assert.Len(t, playable, 1)
		assert.Equal(t, uint8(1), playable[0].Channel)
	})
}

func TestPpqToSamples(t *testing.T) {
	t.Run("zero bpm yields zero", func(t *testing.T) {
		assert.Equal(t, uint64(0), PpqToSamples(960, 0, 44100))
	})

	t.Run("one quarter note at 120bpm and 44100hz", func(t *testing.T) {
		// A quarter note at 120bpm lasts 0.5s -> 22050 samples.
		samples := PpqToSamples(PPQ, 120, 44100)
		assert.Equal(t, uint64(22050), samples)
	})

	t.Run("method form matches the free function", func(t *testing.T) {
		tm := Time{BPM: 90, Framerate: 48000}
		assert.Equal(t, PpqToSamples(1920, 90, 48000), tm.PpqToSamples(1920))
	})
}
