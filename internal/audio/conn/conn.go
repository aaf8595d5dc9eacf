// Package conn implements the single entry point the rest of the
// application uses to drive the audio engine: it owns the player, the
// synthesizer handle, and the export worker, and translates Commands
// into synth mutations or queue inserts so no other package needs to
// reach into those three directly. Grounded on
// original_source/audio/src/conn.rs: Conn.
package conn

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/notewright/audiocore/internal/audio/event"
	"github.com/notewright/audiocore/internal/audio/exporter"
	"github.com/notewright/audiocore/internal/audio/music"
	"github.com/notewright/audiocore/internal/audio/player"
	"github.com/notewright/audiocore/internal/audio/synth"
)

// Command is one request from the UI/editor thread to mutate the
// synthesizer's assignable state. Grounded on
// original_source/audio/src/lib.rs: Command.
type Command interface{ isCommand() }

// LoadSoundFont loads the SoundFont at Path onto Channel's default
// program, loading the font first if it has not been seen before.
type LoadSoundFont struct {
	Channel uint8
	Path    string
}

// SetProgram assigns Channel to a (bank, preset) pair within an
// already-loaded SoundFont, addressed by the ordinal index of the bank
// and preset within that font's sorted bank/preset listing (so the UI
// can drive it with plain up/down indices).
type SetProgram struct {
	Channel     uint8
	Path        string
	BankIndex   int
	PresetIndex int
}

// UnsetProgram clears whatever program is assigned to Channel.
type UnsetProgram struct {
	Channel uint8
}

// SetGain sets the master gain, 0..music.MaxVolume.
type SetGain struct {
	Gain uint8
}

func (LoadSoundFont) isCommand() {}
func (SetProgram) isCommand()    {}
func (UnsetProgram) isCommand()  {}
func (SetGain) isCommand()       {}

// Conn is the audio engine's facade.
type Conn struct {
	mu             sync.Mutex
	framerate      float64
	synth          *synth.Handle
	player         *player.Player
	exportProgress atomic.Pointer[exporter.Progress]

	gain uint8
}

// New builds a Conn around a fresh synthesizer handle and realtime
// player. If the player cannot be constructed (no output device
// available), New still returns a usable Conn: live/scheduled playback
// is silently a no-op, matching audio/src/player.rs's Player::new
// returning None on a missing output device.
func New() (*Conn, error) {
	synthHandle := synth.NewHandle(player.Framerate)
	c := &Conn{
		framerate: player.Framerate,
		synth:     synthHandle,
		gain:      music.MaxVolume,
	}
	synthHandle.SetGain(1.0)

	p, err := player.New(synthHandle)
	if err != nil {
		return c, fmt.Errorf("audio output unavailable, continuing without realtime playback: %w", err)
	}
	c.player = p
	return c, nil
}

// DoCommands applies a batch of Commands in order.
func (c *Conn) DoCommands(commands []Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cmd := range commands {
		switch cmd := cmd.(type) {
		case LoadSoundFont:
			banks, err := c.synth.LoadSoundFont(cmd.Path)
			if err != nil {
				return fmt.Errorf("load soundfont: %w", err)
			}
			if err := c.setDefaultProgramLocked(cmd.Channel, cmd.Path, banks); err != nil {
				return err
			}
		case SetProgram:
			if err := c.setProgramByIndexLocked(cmd.Channel, cmd.Path, cmd.BankIndex, cmd.PresetIndex); err != nil {
				return err
			}
		case UnsetProgram:
			c.synth.UnsetProgram(cmd.Channel)
		case SetGain:
			c.gain = cmd.Gain
			c.synth.SetGain(float32(cmd.Gain) / music.MaxVolume)
		}
	}
	return nil
}

func (c *Conn) setDefaultProgramLocked(channel uint8, path string, banks synth.SoundFontBanks) error {
	var sortedBanks []int32
	for b := range banks.Banks {
		sortedBanks = append(sortedBanks, b)
	}
	if len(sortedBanks) == 0 {
		return nil
	}
	sortInt32s(sortedBanks)
	bank := sortedBanks[0]
	preset := banks.Banks[bank][0].Patch
	return c.synth.SetProgram(channel, path, bank, preset)
}

func (c *Conn) setProgramByIndexLocked(channel uint8, path string, bankIndex, presetIndex int) error {
	state := c.synth.State()
	banks, ok := state.SoundFonts[path]
	if !ok {
		return fmt.Errorf("soundfont %s is not loaded", path)
	}
	var sortedBanks []int32
	for b := range banks.Banks {
		sortedBanks = append(sortedBanks, b)
	}
	sortInt32s(sortedBanks)
	if bankIndex < 0 || bankIndex >= len(sortedBanks) {
		return fmt.Errorf("bank index %d out of range", bankIndex)
	}
	bank := sortedBanks[bankIndex]
	presets := banks.Banks[bank]
	if presetIndex < 0 || presetIndex >= len(presets) {
		return fmt.Errorf("preset index %d out of range", presetIndex)
	}
	return c.synth.SetProgram(channel, path, bank, presets[presetIndex].Patch)
}

func sortInt32s(s []int32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// NoteOns sends live NoteOn events for the selected track of m, gain
// scaled by the track's own gain. Grounded on
// original_source/audio/src/conn.rs: note_ons.
func (c *Conn) NoteOns(m *music.Music, notes []struct{ Key, Velocity uint8 }) {
	track := m.GetSelectedTrack()
	if track == nil {
		return
	}
	for _, n := range notes {
		velocity := music.ScaleVelocity(n.Velocity, track.Gain)
		c.synth.Send(event.NoteOn(track.Channel, n.Key, velocity))
	}
}

// NoteOffs sends live NoteOff events for the selected track of m.
func (c *Conn) NoteOffs(m *music.Music, keys []uint8) {
	track := m.GetSelectedTrack()
	if track == nil {
		return
	}
	for _, key := range keys {
		c.synth.Send(event.NoteOff(track.Channel, key))
	}
}

// IsPlaying reports whether scheduled playback is currently running.
func (c *Conn) IsPlaying() bool {
	if c.player == nil {
		return false
	}
	_, playing := c.player.Time.Get()
	return playing
}

// SetMusic toggles playback of m: starting it from playbackPPQ if
// nothing is playing, or stopping it if something is. Grounded on
// original_source/audio/src/conn.rs: set_music/start_music/stop_music.
func (c *Conn) SetMusic(m *music.Music, t music.Time, playbackPPQ uint64) {
	if c.player == nil {
		return
	}
	if c.IsPlaying() {
		c.stopMusic(m)
	} else {
		c.startMusic(m, t, playbackPPQ)
	}
}

func (c *Conn) startMusic(m *music.Music, t music.Time, playbackPPQ uint64) {
	start := t.PpqToSamples(playbackPPQ)

	for _, track := range m.MidiTracks {
		for _, note := range track.PlaybackNotes(playbackPPQ) {
			c.player.Queue.Enqueue(t.PpqToSamples(note.Start), event.NoteOn(track.Channel, note.Key, note.Velocity))
			c.player.Queue.Enqueue(t.PpqToSamples(note.End), event.NoteOff(track.Channel, note.Key))
		}
	}
	c.player.Queue.Sort()
	c.player.Time.Start(start)
	c.player.Play()
}

func (c *Conn) stopMusic(m *music.Music) {
	for _, track := range m.MidiTracks {
		c.synth.Send(event.AllNotesOff(track.Channel))
		c.synth.Send(event.AllSoundOff(track.Channel))
	}
	c.player.Time.Stop()
	c.player.Pause()
}

// Sample returns the most recently rendered stereo sample, for UI
// metering. Returns (0, 0) if no player is available.
func (c *Conn) Sample() (left, right float32) {
	if c.player == nil {
		return 0, 0
	}
	return c.player.Meter.Load()
}

// IsExporting reports whether an export pass is currently running.
func (c *Conn) IsExporting() bool {
	state := c.ExportState()
	return state != exporter.StateIdle && state != exporter.StateDone
}

// ExportState returns the current export pass's coarse phase.
func (c *Conn) ExportState() exporter.State {
	return c.ExportProgress().Phase
}

// ExportProgress returns the current export pass's full progress,
// including sample counts for the Exportable currently being rendered.
func (c *Conn) ExportProgress() exporter.Progress {
	p := c.exportProgress.Load()
	if p == nil {
		return exporter.Progress{Phase: exporter.StateIdle}
	}
	return *p
}

// StartExport schedules an offline export of m's playable tracks and
// runs it on a background goroutine, mirroring the prototype's
// spawn(move || Self::export(...)) worker. A .mid export is the
// exception: it is written synchronously by exporter.WriteMid before
// StartExport returns, and does not update the export progress. Grounded
// on original_source/audio/src/conn.rs: start_export.
func (c *Conn) StartExport(m *music.Music, t music.Time, settings exporter.Settings, outPath string) error {
	if settings.Format == exporter.FormatMid {
		state := c.synth.State()
		return exporter.WriteMid(outPath, m, t.BPM, state.Programs, settings)
	}

	c.mu.Lock()
	gain := float32(c.gain) / music.MaxVolume
	state := c.synth.State()
	c.mu.Unlock()

	exportables := exporter.BuildExportables(m, t, state.Programs, settings, gain)
	c.exportProgress.Store(&exporter.Progress{Phase: exporter.StateRenderingAudio})

	go func() {
		if err := exporter.Run(exportables, c.synth, settings, outPath, &c.exportProgress); err != nil {
			log.Printf("export to %s failed: %v", outPath, err)
		}
	}()
	return nil
}
