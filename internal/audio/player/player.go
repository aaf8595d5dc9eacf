// Package player drives realtime playback: an ebiten/v2/audio.Context
// pulling PCM frames from a Stream, which drains an event.GuardedQueue
// into a synth.Handle under the fixed TimeState -> EventQueue -> Synth
// lock order. Grounded on original_source/audio/src/player.rs, adapted
// from cpal's push-based output callback to ebiten's pull-based
// io.Reader player, the pattern used in
// zurustar-son-et/pkg/engine/midi_player.go.
package player

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/notewright/audiocore/internal/audio/event"
	"github.com/notewright/audiocore/internal/audio/synth"
)

// Framerate is the fixed output sample rate. The prototype reports the
// device's native framerate; ebiten's audio.Context instead fixes one
// rate for the process, so this engine standardizes on CD quality and
// resamples nothing.
const Framerate = 44100

// Player owns the ebiten audio context and the one playback stream built
// from it, plus the shared state the stream reads.
type Player struct {
	mu      sync.Mutex
	ctx     *audio.Context
	stream  *Stream
	out     *audio.Player
	Time    *TimeState
	Queue   *event.GuardedQueue
	Meter   *SampleSlot
	playing bool
}

// New builds a Player around synthHandle and opens its output stream
// immediately: audio/src/player.rs:144 calls stream.play() once,
// unconditionally, at construction, independent of whether anything is
// scheduled yet, so that live NoteOns/NoteOffs sent straight to the
// synth are always audible. Queue and Time are exported so a Conn
// facade can enqueue events and start/stop the transport.
func New(synthHandle *synth.Handle) (*Player, error) {
	p := &Player{
		ctx:   audio.NewContext(Framerate),
		Time:  &TimeState{},
		Queue: &event.GuardedQueue{},
		Meter: &SampleSlot{},
	}
	p.stream = NewStream(p.Time, p.Queue, synthHandle, p.Meter)

	out, err := p.ctx.NewPlayer(p.stream)
	if err != nil {
		return nil, fmt.Errorf("create audio output player: %w", err)
	}
	p.out = out
	p.out.Play()
	return p, nil
}

// Play marks scheduled playback as running. The output stream itself
// runs continuously from New onward, so this only gates the transport
// (Time), not the stream: live note input stays audible whether or not
// scheduled playback is active.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
}

// Pause marks scheduled playback as stopped and clears the playhead.
// The output stream keeps running so live NoteOns/NoteOffs remain
// audible.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.Time.Stop()
}

// IsPlaying reports whether scheduled playback is marked running (Play
// was called more recently than Pause). The output stream itself runs
// continuously from New onward regardless.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}
