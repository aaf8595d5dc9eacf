package player

import (
	"math"
	"sync/atomic"
)

// SampleSlot packs a stereo float32 sample pair into a single uint64 so
// the realtime callback can publish a meter value without taking a lock
// shared with the UI reader. This decouples metering from the
// TimeState/EventQueue/Synth lock order the callback itself must respect.
type SampleSlot struct {
	bits atomic.Uint64
}

// Store publishes the most recent stereo sample for UI metering.
func (s *SampleSlot) Store(left, right float32) {
	s.bits.Store(uint64(math.Float32bits(left))<<32 | uint64(math.Float32bits(right)))
}

// Load returns the last published stereo sample.
func (s *SampleSlot) Load() (left, right float32) {
	v := s.bits.Load()
	return math.Float32frombits(uint32(v >> 32)), math.Float32frombits(uint32(v))
}
