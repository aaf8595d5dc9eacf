package exporter

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notewright/audiocore/internal/audio/music"
	"github.com/notewright/audiocore/internal/audio/synth"
)

func buildMusic() *music.Music {
	tr := music.NewMidiTrack(0)
	tr.Notes = []music.Note{
		{Key: 60, Velocity: 100, Start: 0, End: music.PPQ},
		{Key: 62, Velocity: 100, Start: music.PPQ, End: 2 * music.PPQ},
	}
	return &music.Music{MidiTracks: []music.MidiTrack{tr}}
}

func TestEnqueueTrackUsesNoteEndNotNoteStartForNoteOff(t *testing.T) {
	tr := music.NewMidiTrack(0)
	tr.Notes = []music.Note{{Key: 60, Velocity: 100, Start: 100, End: 500}}
	t1 := music.Time{BPM: 120, Framerate: 44100}

	q, total := enqueueTrack(&tr, t1, 1.0)
	expectedEnd := t1.PpqToSamples(500)
	assert.Equal(t, expectedEnd, total)

	// Drain and confirm NoteOff lands at the note's end time, not its start.
	var sawNoteOffAtEnd bool
	for !q.IsEmpty() {
		tm, _ := q.PeekTime()
		for range q.Dequeue(tm) {
			if tm == expectedEnd {
				sawNoteOffAtEnd = true
			}
		}
	}
	assert.True(t, sawNoteOffAtEnd)
}

func TestBuildExportablesSingleFileMergesTracks(t *testing.T) {
	m := buildMusic()
	m.MidiTracks = append(m.MidiTracks, music.NewMidiTrack(1))
	m.MidiTracks[1].Notes = []music.Note{{Key: 64, Velocity: 100, Start: 0, End: music.PPQ}}

	settings := DefaultSettings()
	settings.MultiFile = false
	exportables := BuildExportables(m, music.Time{BPM: 120, Framerate: 44100}, nil, settings, 1.0)
	assert.Len(t, exportables, 1)
	assert.Nil(t, exportables[0].Suffix)
}

func TestBuildExportablesMultiFileSplitsPerTrack(t *testing.T) {
	m := buildMusic()
	m.MidiTracks = append(m.MidiTracks, music.NewMidiTrack(1))
	m.MidiTracks[1].Notes = []music.Note{{Key: 64, Velocity: 100, Start: 0, End: music.PPQ}}

	settings := DefaultSettings()
	settings.MultiFile = true
	settings.MultiFileSuffix = SuffixChannel
	exportables := BuildExportables(m, music.Time{BPM: 120, Framerate: 44100}, nil, settings, 1.0)
	assert.Len(t, exportables, 2)
	assert.Equal(t, "0", *exportables[0].Suffix)
	assert.Equal(t, "1", *exportables[1].Suffix)
}

func TestFileSuffixVariants(t *testing.T) {
	tr := music.NewMidiTrack(3)
	programs := map[uint8]synth.Program{3: {Name: "Grand Piano"}}

	assert.Equal(t, "3", fileSuffix(&tr, programs, SuffixChannel))
	assert.Equal(t, "Grand Piano", fileSuffix(&tr, programs, SuffixPreset))
	assert.Equal(t, "3_Grand Piano", fileSuffix(&tr, programs, SuffixChannelAndPreset))
}

func TestFileSuffixFallsBackToChannelWhenProgramAbsent(t *testing.T) {
	tr := music.NewMidiTrack(5)
	programs := map[uint8]synth.Program{}

	assert.Equal(t, "5", fileSuffix(&tr, programs, SuffixPreset))
	assert.Equal(t, "5", fileSuffix(&tr, programs, SuffixChannelAndPreset))
}

func TestAppendDecayTailStopsOnceSilent(t *testing.T) {
	h := synth.NewHandle(44100)
	left, right := appendDecayTail(nil, nil, h)
	// No active engine renders anything but silence, so no decay samples
	// should be appended.
	assert.Empty(t, left)
	assert.Empty(t, right)
}

func TestOutputPathAddsSuffixBeforeExtension(t *testing.T) {
	suffix := "2"
	assert.Equal(t, "/tmp/song_2.wav", outputPath("/tmp/song.wav", &suffix, Settings{}))
	assert.Equal(t, "/tmp/song.wav", outputPath("/tmp/song.wav", nil, Settings{}))
}

func TestToInt16AndToInt32ClampRange(t *testing.T) {
	assert.Equal(t, int16(32767), toInt16(2.0))
	assert.Equal(t, int16(-32768), toInt16(-2.0))
	assert.Equal(t, int32(0), toInt32(0))
}

func TestToInt16FloorsRatherThanTruncates(t *testing.T) {
	// -0.00002 * 32767.5 == -0.655... ; truncating toward zero gives 0,
	// flooring gives -1, matching exporter.rs's (sample * F32_TO_I16).floor().
	assert.Equal(t, int16(-1), toInt16(-0.00002))
	assert.Equal(t, int32(-1), toInt32(-0.00002))
}

func TestRenderProgressIsMonotonicNonDecreasingAndBounded(t *testing.T) {
	tr := music.NewMidiTrack(0)
	tr.Notes = []music.Note{{Key: 60, Velocity: 100, Start: 0, End: music.PPQ}}
	q, total := enqueueTrack(&tr, music.Time{BPM: 120, Framerate: 44100}, 1.0)
	exp := Exportable{Queue: q, TotalSamples: total}

	h := synth.NewHandle(44100)
	var seen []uint64
	render(exp, h, func(exported uint64) {
		seen = append(seen, exported)
	})

	var prev uint64
	for _, v := range seen {
		assert.GreaterOrEqual(t, v, prev)
		assert.LessOrEqual(t, v, total)
		prev = v
	}
}

func TestRunResetsProgressToIdleOnEncodeFailure(t *testing.T) {
	tr := music.NewMidiTrack(0)
	tr.Notes = []music.Note{{Key: 60, Velocity: 100, Start: 0, End: music.PPQ}}
	q, total := enqueueTrack(&tr, music.Time{BPM: 120, Framerate: 44100}, 1.0)
	exportables := []Exportable{{Queue: q, TotalSamples: total}}

	h := synth.NewHandle(44100)
	settings := DefaultSettings()
	var progress atomic.Pointer[Progress]

	err := Run(exportables, h, settings, "/nonexistent-dir/out.wav", &progress)
	assert.Error(t, err)
	assert.Equal(t, StateIdle, progress.Load().Phase)
}
