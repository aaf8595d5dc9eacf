package synth

// State is a snapshot of the synthesizer's assignable state: which
// program is loaded on each channel and the loaded SoundFont registry.
// Grounded on original_source/audio/src/lib.rs (SynthState doc) and
// audio/src/conn.rs's use of state.programs as a channel->Program map.
type State struct {
	// Programs maps channel to its currently-assigned Program.
	// A channel with no entry plays no sound.
	Programs map[uint8]Program
	// SoundFonts is the set of loaded SoundFont paths and their banks.
	SoundFonts map[string]SoundFontBanks
}

// NewState returns an empty State.
func NewState() State {
	return State{
		Programs:   make(map[uint8]Program),
		SoundFonts: make(map[string]SoundFontBanks),
	}
}

// Clone returns a deep-enough copy of s for handing to a caller without
// sharing the handle's internal maps.
func (s State) Clone() State {
	out := NewState()
	for ch, p := range s.Programs {
		out.Programs[ch] = p
	}
	for path, banks := range s.SoundFonts {
		copied := SoundFontBanks{Path: banks.Path, Banks: make(map[int32][]Preset, len(banks.Banks))}
		for bank, presets := range banks.Banks {
			cp := make([]Preset, len(presets))
			copy(cp, presets)
			copied.Banks[bank] = cp
		}
		out.SoundFonts[path] = copied
	}
	return out
}
