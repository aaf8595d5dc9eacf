package player

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notewright/audiocore/internal/audio/event"
	"github.com/notewright/audiocore/internal/audio/synth"
)

func TestStreamReadIdleProducesSilence(t *testing.T) {
	ts := &TimeState{}
	q := &event.GuardedQueue{}
	h := synth.NewHandle(Framerate)
	meter := &SampleSlot{}
	s := NewStream(ts, q, h, meter)

	buf := make([]byte, 4*8)
	n, err := s.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, len(buf), n)
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
	_, playing := ts.Get()
	assert.False(t, playing)
}

func TestStreamReadPlayingWithEmptyQueueAdvancesTimeInBulk(t *testing.T) {
	ts := &TimeState{}
	ts.Start(0)
	q := &event.GuardedQueue{}
	h := synth.NewHandle(Framerate)
	meter := &SampleSlot{}
	s := NewStream(ts, q, h, meter)

	buf := make([]byte, 4*16)
	_, err := s.Read(buf)
	assert.NoError(t, err)

	tm, playing := ts.Get()
	assert.True(t, playing)
	assert.Equal(t, uint64(16), tm)
}

func TestStreamReadScheduledAdvancesOneSampleAtATime(t *testing.T) {
	ts := &TimeState{}
	ts.Start(0)
	q := &event.GuardedQueue{}
	q.Enqueue(5, event.NoteOn(0, 60, 100))
	q.Sort()
	h := synth.NewHandle(Framerate)
	meter := &SampleSlot{}
	s := NewStream(ts, q, h, meter)

	buf := make([]byte, 4*10)
	_, err := s.Read(buf)
	assert.NoError(t, err)

	tm, playing := ts.Get()
	assert.True(t, playing)
	assert.Equal(t, uint64(10), tm)
	assert.True(t, q.IsEmpty())
}
