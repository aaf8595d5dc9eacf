package player

import "sync"

// TimeState holds the realtime playhead, in samples since the start of
// the current performance. A nil Time means nothing is currently
// scheduled to play. Grounded on original_source/audio/src/player.rs's
// `time_state.time: Option<u64>` and common/src/time.rs.
type TimeState struct {
	mu   sync.Mutex
	time *uint64
}

// Get returns the current time and whether playback is active.
func (t *TimeState) Get() (time uint64, playing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.time == nil {
		return 0, false
	}
	return *t.time, true
}

// Start begins playback at the given sample time.
func (t *TimeState) Start(time uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := time
	t.time = &v
}

// Stop clears the playhead, returning the engine to idle.
func (t *TimeState) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.time = nil
}

// Advance moves the playhead forward by delta samples. A no-op while
// idle.
func (t *TimeState) Advance(delta uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.time != nil {
		*t.time += delta
	}
}
