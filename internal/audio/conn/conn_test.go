package conn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notewright/audiocore/internal/audio/exporter"
	"github.com/notewright/audiocore/internal/audio/music"
	"github.com/notewright/audiocore/internal/audio/synth"
)

// newHeadlessConn builds a Conn with no realtime player, exercising the
// same degraded mode New() falls back to when no audio output device is
// available.
func newHeadlessConn() *Conn {
	return &Conn{
		framerate: 44100,
		synth:     synth.NewHandle(44100),
		gain:      music.MaxVolume,
	}
}

func TestConnSetGainRecordsGain(t *testing.T) {
	c := newHeadlessConn()
	err := c.DoCommands([]Command{SetGain{Gain: 64}})
	assert.NoError(t, err)
	assert.Equal(t, uint8(64), c.gain)
}

func TestConnUnsetProgramOnUnassignedChannelIsNoop(t *testing.T) {
	c := newHeadlessConn()
	err := c.DoCommands([]Command{UnsetProgram{Channel: 0}})
	assert.NoError(t, err)
}

func TestConnSetProgramByIndexFailsWithoutLoadedSoundFont(t *testing.T) {
	c := newHeadlessConn()
	err := c.setProgramByIndexLocked(0, "missing.sf2", 0, 0)
	assert.Error(t, err)
}

func TestConnIsPlayingWithoutPlayerIsFalse(t *testing.T) {
	c := newHeadlessConn()
	assert.False(t, c.IsPlaying())
}

func TestConnSampleWithoutPlayerIsZero(t *testing.T) {
	c := newHeadlessConn()
	l, r := c.Sample()
	assert.Equal(t, float32(0), l)
	assert.Equal(t, float32(0), r)
}

func TestConnNoteOnsWithNoSelectedTrackIsNoop(t *testing.T) {
	c := newHeadlessConn()
	m := &music.Music{MidiTracks: []music.MidiTrack{music.NewMidiTrack(0)}}
	c.NoteOns(m, []struct{ Key, Velocity uint8 }{{Key: 60, Velocity: 100}})
}

func TestSortInt32s(t *testing.T) {
	s := []int32{5, 1, 3, 2, 4}
	sortInt32s(s)
	assert.Equal(t, []int32{1, 2, 3, 4, 5}, s)
}

func TestConnExportStateDefaultsToIdle(t *testing.T) {
	c := newHeadlessConn()
	assert.Equal(t, exporter.StateIdle, c.ExportState())
	assert.False(t, c.IsExporting())
	assert.Equal(t, exporter.Progress{Phase: exporter.StateIdle}, c.ExportProgress())
}
