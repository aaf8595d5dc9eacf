package player

import (
	"encoding/binary"
	"io"

	"github.com/notewright/audiocore/internal/audio/event"
	"github.com/notewright/audiocore/internal/audio/synth"
)

// bytesPerFrame is 2 channels * 2 bytes (int16) per sample, the PCM
// format ebiten/v2/audio.Context streams expect.
const bytesPerFrame = 4

// Stream implements io.Reader for an ebiten audio.Context player: each
// Read call renders len(p)/4 stereo frames, draining due events from
// queue into synth one sample at a time while playing, or rendering in
// bulk while idle. Grounded on original_source/audio/src/player.rs's
// cpal data_callback, adapted from a push callback to a pull io.Reader.
type Stream struct {
	time  *TimeState
	queue *event.GuardedQueue
	synth *synth.Handle
	meter *SampleSlot
}

// NewStream returns a Stream that reads from queue into synth, tracking
// time in time and publishing the most recent sample to meter.
func NewStream(time *TimeState, queue *event.GuardedQueue, synthHandle *synth.Handle, meter *SampleSlot) *Stream {
	return &Stream{time: time, queue: queue, synth: synthHandle, meter: meter}
}

// Read fills p with len(p)/bytesPerFrame interleaved int16 stereo
// frames. The lock order is always TimeState, then EventQueue, then
// Synth, matching the rest of the engine so the realtime callback can
// never deadlock against the UI or export threads.
func (s *Stream) Read(p []byte) (int, error) {
	n := len(p) / bytesPerFrame
	if n == 0 {
		return 0, nil
	}

	left := make([]float32, n)
	right := make([]float32, n)

	currentTime, playing := s.time.Get()
	if !playing || s.queue.IsEmpty() {
		// Idle, or playing with nothing left queued: render in bulk and
		// advance time by the whole buffer in one step.
		s.synth.Render(left, right)
		if playing {
			s.time.Advance(uint64(n))
		}
	} else {
		// Scheduled: advance one sample at a time so events land on the
		// exact frame they were queued for.
		for i := 0; i < n; i++ {
			events := s.queue.Dequeue(currentTime)
			for _, e := range events {
				s.synth.Send(e)
			}
			frameL, frameR := make([]float32, 1), make([]float32, 1)
			s.synth.Render(frameL, frameR)
			left[i], right[i] = frameL[0], frameR[0]
			currentTime++
		}
		s.time.Start(currentTime)
	}

	if n > 0 {
		s.meter.Store(left[n-1], right[n-1])
	}

	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(p[i*4:], uint16(clampToInt16(left[i])))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(clampToInt16(right[i])))
	}
	return n * bytesPerFrame, nil
}

func clampToInt16(sample float32) int16 {
	scaled := sample * 32767
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}

var _ io.Reader = (*Stream)(nil)
