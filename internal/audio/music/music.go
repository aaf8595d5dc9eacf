// Package music holds the composition data model consumed (not owned) by
// the audio engine: tracks, notes, and the PPQ/BPM conversion the engine
// needs to schedule events in samples. Grounded on
// original_source/common/src/{music,midi_track,note,time}.rs, generalized
// from the prototype's Fraction-based bar time to the raw-PPQ-integer time
// model the spec's data model calls for.
package music

// MaxVolume is the upper bound on 7-bit MIDI velocity/gain values used
// throughout the engine.
const MaxVolume = 127

// PPQ is the number of pulses per quarter note, the compile-time unit of
// musical time used by Note.Start/Note.End.
const PPQ = 960

// DefaultFramerate is the CD-quality sample rate used by the default
// export settings and the demo driver.
const DefaultFramerate = 44100.0

// Note is one scored note: a key, a velocity, and a start/end time in PPQ
// pulses.
type Note struct {
	Key      uint8
	Velocity uint8
	Start    uint64
	End      uint64
}

// EffectKind mirrors event.EffectKind for scored, time-stamped effects.
type EffectKind int

const (
	EffectChorus EffectKind = iota
	EffectReverb
	EffectPan
)

// Effect is a scored effect change at a given PPQ time.
type Effect struct {
	Kind  EffectKind
	Value int16
	Time  uint64
}

// MidiTrack is one track of a composition: a channel, a gain, its notes,
// and its effects, plus mute/solo flags.
type MidiTrack struct {
	Channel uint8
	Gain    uint8
	Notes   []Note
	Effects []Effect
	Mute    bool
	Solo    bool
}

// NewMidiTrack returns a track on channel with full gain and no notes.
func NewMidiTrack(channel uint8) MidiTrack {
	return MidiTrack{Channel: channel, Gain: MaxVolume}
}

// GetEnd returns the highest Note.End in the track, if any.
// Grounded on common/src/midi_track.rs: get_end.
func (t *MidiTrack) GetEnd() (ppq uint64, ok bool) {
	for _, n := range t.Notes {
		if !ok || n.End > ppq {
			ppq = n.End
			ok = true
		}
	}
	return
}

// PlaybackNotes returns the notes that start at or after start, gain-scaled
// by the track's gain, sorted by (start, end, key).
// Grounded on common/src/midi_track.rs: get_playback_notes.
func (t *MidiTrack) PlaybackNotes(start uint64) []Note {
	var notes []Note
	for _, n := range t.Notes {
		if n.Start >= start {
			n.Velocity = ScaleVelocity(n.Velocity, t.Gain)
			notes = append(notes, n)
		}
	}
	sortNotes(notes)
	return notes
}

func sortNotes(notes []Note) {
	// Insertion sort: track sizes are small (a few hundred notes at most)
	// and this keeps the comparator trivial to verify against the spec's
	// ordering (start, then end, then key).
	for i := 1; i < len(notes); i++ {
		for j := i; j > 0 && noteLess(notes[j], notes[j-1]); j-- {
			notes[j], notes[j-1] = notes[j-1], notes[j]
		}
	}
}

func noteLess(a, b Note) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	return a.Key < b.Key
}

// ScaleVelocity scales a 7-bit velocity/value by gain/MaxVolume.
func ScaleVelocity(value, gain uint8) uint8 {
	return uint8((uint32(value) * uint32(gain)) / MaxVolume)
}

// Music is the full composition: an ordered list of tracks and the index
// of the selected one, if any.
type Music struct {
	MidiTracks []MidiTrack
	Selected   *int
}

// GetSelectedTrack returns the selected track, if any.
// Grounded on common/src/music.rs: get_selected_track.
func (m *Music) GetSelectedTrack() *MidiTrack {
	if m.Selected == nil || *m.Selected < 0 || *m.Selected >= len(m.MidiTracks) {
		return nil
	}
	return &m.MidiTracks[*m.Selected]
}

// PlayableTracks returns the tracks that will be heard during
// playback/export: if any track is soloed, only soloed tracks; otherwise
// every unmuted track. Grounded on common/src/music.rs: get_playable_tracks.
func (m *Music) PlayableTracks() []*MidiTrack {
	var soloed []*MidiTrack
	for i := range m.MidiTracks {
		if m.MidiTracks[i].Solo {
			soloed = append(soloed, &m.MidiTracks[i])
		}
	}
	if len(soloed) > 0 {
		return soloed
	}
	var playable []*MidiTrack
	for i := range m.MidiTracks {
		if !m.MidiTracks[i].Mute {
			playable = append(playable, &m.MidiTracks[i])
		}
	}
	return playable
}

// Time holds the BPM and framerate needed to convert PPQ pulses to sample
// counts.
type Time struct {
	BPM       uint32
	Framerate float64
}

// PpqToSamples converts a PPQ time to a sample count at the given
// framerate: ppq * framerate * 60 / (bpm * PPQ).
func PpqToSamples(ppq uint64, bpm uint32, framerate float64) uint64 {
	if bpm == 0 {
		return 0
	}
	samples := float64(ppq) * framerate * 60.0 / (float64(bpm) * float64(PPQ))
	return uint64(samples)
}

// PpqToSamples converts ppq to samples using t's BPM and Framerate.
func (t *Time) PpqToSamples(ppq uint64) uint64 {
	return PpqToSamples(ppq, t.BPM, t.Framerate)
}
