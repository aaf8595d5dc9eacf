package synth

import (
	"fmt"
	"sync"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/notewright/audiocore/internal/audio/event"
)

const (
	midiNoteOff         = 0x80
	midiNoteOn          = 0x90
	midiPolyPressure    = 0xA0
	midiControlChange   = 0xB0
	midiProgramChange   = 0xC0
	midiChannelPressure = 0xD0
	midiPitchBend       = 0xE0

	ccPan              = 10
	ccReverbSend       = 91
	ccChorusSend       = 93
	ccAllSoundOff      = 120
	ccAllControllersOff = 121
	ccAllNotesOff      = 123
)

// engine is one loaded SoundFont paired with the meltysynth.Synthesizer
// built from it, plus the set of channels currently routed to it.
type engine struct {
	font     *meltysynth.SoundFont
	synth    *meltysynth.Synthesizer
	banks    SoundFontBanks
	channels map[uint8]bool
}

// Handle is a mutex-protected wrapper around one go-meltysynth engine per
// loaded SoundFont. meltysynth.NewSynthesizer accepts exactly one
// SoundFont, unlike the oxisynth Synth this engine's data model was
// designed against, which loads many fonts into one Synth and dispatches
// by per-channel program_select(channel, font_id, bank, preset). Handle
// reproduces that per-channel multi-font behavior by holding one engine
// per SoundFont path, routing each channel's events only to the engine
// it is currently assigned to, and summing rendered output across every
// engine that owns at least one channel.
type Handle struct {
	mu         sync.Mutex
	sampleRate int32
	gain       float32
	engines    map[string]*engine
	state      State
}

// NewHandle returns a Handle rendering at sampleRate with unity gain.
func NewHandle(sampleRate int32) *Handle {
	return &Handle{
		sampleRate: sampleRate,
		gain:       1.0,
		engines:    make(map[string]*engine),
		state:      NewState(),
	}
}

// LoadSoundFont reads and parses the SoundFont at path and builds a
// meltysynth engine for it, if it is not already loaded. Grounded on
// audio/src/conn.rs's soundfonts.get(path)/insert(path, banks) pattern;
// unlike the prototype, a parse failure here is a recoverable error
// rather than a panic (resolving the SoundFontLoadError open question).
func (h *Handle) LoadSoundFont(path string) (SoundFontBanks, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadSoundFontLocked(path)
}

func (h *Handle) loadSoundFontLocked(path string) (SoundFontBanks, error) {
	if e, ok := h.engines[path]; ok {
		return e.banks, nil
	}
	font, err := loadSoundFont(path)
	if err != nil {
		return SoundFontBanks{}, err
	}
	settings := meltysynth.NewSynthesizerSettings(h.sampleRate)
	synthesizer, err := meltysynth.NewSynthesizer(font, settings)
	if err != nil {
		return SoundFontBanks{}, fmt.Errorf("build synthesizer for %s: %w", path, err)
	}
	banks := SoundFontBanks{Path: path, Banks: scanBanks(font)}
	h.engines[path] = &engine{font: font, synth: synthesizer, banks: banks, channels: make(map[uint8]bool)}
	h.state.SoundFonts[path] = banks
	return banks, nil
}

// SetProgram assigns channel to the (bank, preset) of the SoundFont at
// path, loading the SoundFont first if necessary. Grounded on
// audio/src/conn.rs: the program_select / state.programs.insert flow.
func (h *Handle) SetProgram(channel uint8, path string, bank, preset int32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	banks, err := h.loadSoundFontLocked(path)
	if err != nil {
		return err
	}
	name := ""
	for _, p := range banks.Banks[bank] {
		if p.Patch == preset {
			name = p.Name
			break
		}
	}

	h.detachChannelLocked(channel)
	e := h.engines[path]
	e.channels[channel] = true
	e.synth.ProcessMidiMessage(int32(channel), midiProgramChange, preset, 0)
	h.sendControlChangeLocked(e, channel, 0, uint8(bank>>7))
	h.sendControlChangeLocked(e, channel, 32, uint8(bank&0x7f))

	h.state.Programs[channel] = Program{SoundFontPath: path, Bank: bank, Preset: preset, Name: name}
	return nil
}

// UnsetProgram detaches channel from whatever engine it was assigned to,
// silencing it.
func (h *Handle) UnsetProgram(channel uint8) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachChannelLocked(channel)
	delete(h.state.Programs, channel)
}

func (h *Handle) detachChannelLocked(channel uint8) {
	if prev, ok := h.state.Programs[channel]; ok {
		if e, ok := h.engines[prev.SoundFontPath]; ok {
			e.synth.ProcessMidiMessage(int32(channel), midiControlChange, ccAllSoundOff, 0)
			delete(e.channels, channel)
		}
	}
}

// SetGain sets the master output gain applied after rendering, 0..1.
func (h *Handle) SetGain(gain float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gain = gain
}

// SetSampleRate rebuilds every loaded engine at the new sample rate.
// Rebuilding is required because meltysynth bakes the sample rate into
// Synthesizer at construction time.
func (h *Handle) SetSampleRate(sampleRate int32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sampleRate == h.sampleRate {
		return nil
	}
	h.sampleRate = sampleRate
	for path, e := range h.engines {
		settings := meltysynth.NewSynthesizerSettings(sampleRate)
		synthesizer, err := meltysynth.NewSynthesizer(e.font, settings)
		if err != nil {
			return fmt.Errorf("rebuild synthesizer for %s: %w", path, err)
		}
		e.synth = synthesizer
	}
	return nil
}

// State returns a snapshot of the handle's assignable state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Clone()
}

// engineForChannel returns the engine assigned to channel, or nil.
func (h *Handle) engineForChannel(channel uint8) *engine {
	if p, ok := h.state.Programs[channel]; ok {
		return h.engines[p.SoundFontPath]
	}
	return nil
}

// Send dispatches ev to the engine owning ev's channel. Events on a
// channel with no assigned program are silently dropped, matching a
// synth with no program loaded producing no sound.
func (h *Handle) Send(ev event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ev.Kind == event.KindAllNotesOff || ev.Kind == event.KindAllSoundOff {
		// These can target a channel with no program assigned yet if a
		// track is silenced before it is ever voiced; send to whichever
		// engine the channel is currently routed to (detaching a channel
		// removes it from its engine), and drop the event otherwise.
		for _, e := range h.engines {
			if e.channels[ev.Channel] {
				h.dispatchLocked(e, ev)
			}
		}
		return
	}

	e := h.engineForChannel(ev.Channel)
	if e == nil {
		return
	}
	h.dispatchLocked(e, ev)
}

func (h *Handle) dispatchLocked(e *engine, ev event.Event) {
	ch := int32(ev.Channel)
	switch ev.Kind {
	case event.KindNoteOn:
		e.synth.ProcessMidiMessage(ch, midiNoteOn, int32(ev.Key), int32(ev.Velocity))
	case event.KindNoteOff:
		e.synth.ProcessMidiMessage(ch, midiNoteOff, int32(ev.Key), 0)
	case event.KindAllNotesOff:
		e.synth.ProcessMidiMessage(ch, midiControlChange, ccAllNotesOff, 0)
	case event.KindAllSoundOff:
		e.synth.ProcessMidiMessage(ch, midiControlChange, ccAllSoundOff, 0)
	case event.KindProgramChange:
		e.synth.ProcessMidiMessage(ch, midiProgramChange, int32(ev.Program), 0)
	case event.KindControlChange:
		e.synth.ProcessMidiMessage(ch, midiControlChange, int32(ev.Controller), int32(ev.Value))
	case event.KindPitchBend:
		e.synth.ProcessMidiMessage(ch, midiPitchBend, int32(ev.PitchBend&0x7f), int32(ev.PitchBend>>7))
	case event.KindChannelPressure:
		e.synth.ProcessMidiMessage(ch, midiChannelPressure, int32(ev.Pressure), 0)
	case event.KindPolyphonicKeyPressure:
		e.synth.ProcessMidiMessage(ch, midiPolyPressure, int32(ev.Key), int32(ev.Pressure))
	case event.KindEffect:
		h.dispatchEffectLocked(e, ev)
	}
}

func (h *Handle) dispatchEffectLocked(e *engine, ev event.Event) {
	ch := int32(ev.Channel)
	switch ev.EffectKind {
	case event.EffectChorus:
		e.synth.ProcessMidiMessage(ch, midiControlChange, ccChorusSend, scaleSend(ev.EffectValue))
	case event.EffectReverb:
		e.synth.ProcessMidiMessage(ch, midiControlChange, ccReverbSend, scaleSend(ev.EffectValue))
	case event.EffectPan:
		e.synth.ProcessMidiMessage(ch, midiControlChange, ccPan, scalePan(ev.EffectValue))
	}
}

func (h *Handle) sendControlChangeLocked(e *engine, channel uint8, controller, value uint8) {
	e.synth.ProcessMidiMessage(int32(channel), midiControlChange, int32(controller), int32(value))
}

// scaleSend maps a 0..1000 send amount to a 7-bit MIDI CC value.
func scaleSend(value int16) int32 {
	if value < 0 {
		value = 0
	}
	if value > 1000 {
		value = 1000
	}
	return int32(value) * 127 / 1000
}

// scalePan maps a -500..500 pan amount to a 7-bit MIDI CC value centered
// at 64.
func scalePan(value int16) int32 {
	if value < -500 {
		value = -500
	}
	if value > 500 {
		value = 500
	}
	return 64 + int32(value)*63/500
}

// Render sums the output of every active engine into left and right,
// which must have equal length. Grounded on
// zurustar-son-et/pkg/engine/midi_player.go: MIDIStream.Read's
// synthesizer.Render(left, right) call, generalized to sum across
// engines.
func (h *Handle) Render(left, right []float32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range left {
		left[i] = 0
		right[i] = 0
	}
	if len(h.engines) == 0 {
		return
	}

	bufL := make([]float32, len(left))
	bufR := make([]float32, len(right))
	for _, e := range h.engines {
		if len(e.channels) == 0 {
			continue
		}
		e.synth.Render(bufL, bufR)
		for i := range left {
			left[i] += bufL[i] * h.gain
			right[i] += bufR[i] * h.gain
		}
	}
}
