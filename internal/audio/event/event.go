// Package event implements the ordered MIDI/synth event queue that sits
// between the Conn facade and the synthesizer: a timed sequence of events
// consumed by both the realtime player and the offline exporter.
package event

// Kind identifies which variant of Event is populated.
type Kind int

const (
	KindNoteOn Kind = iota
	KindNoteOff
	KindAllNotesOff
	KindAllSoundOff
	KindProgramChange
	KindControlChange
	KindPitchBend
	KindChannelPressure
	KindPolyphonicKeyPressure
	KindEffect
)

// EffectKind identifies which synthesizer effect an Effect event targets.
type EffectKind int

const (
	EffectChorus EffectKind = iota
	EffectReverb
	EffectPan
)

// Event is a tagged variant describing one MIDI or synthesizer event.
// Only the fields relevant to Kind are meaningful; the zero value of the
// others is ignored.
type Event struct {
	Kind Kind

	Channel uint8

	// NoteOn, NoteOff, PolyphonicKeyPressure
	Key uint8
	// NoteOn
	Velocity uint8

	// ProgramChange
	Program uint8

	// ControlChange
	Controller uint8
	Value      uint8

	// PitchBend: 0..16383
	PitchBend uint16

	// ChannelPressure, PolyphonicKeyPressure: 0..127
	Pressure uint8

	// Effect
	EffectKind  EffectKind
	EffectValue int16
}

// NoteOn returns a NoteOn event. Velocity and key are 7-bit MIDI values.
func NoteOn(channel, key, velocity uint8) Event {
	return Event{Kind: KindNoteOn, Channel: channel, Key: key, Velocity: velocity}
}

// NoteOff returns a NoteOff event.
func NoteOff(channel, key uint8) Event {
	return Event{Kind: KindNoteOff, Channel: channel, Key: key}
}

// AllNotesOff returns an AllNotesOff event for channel.
func AllNotesOff(channel uint8) Event {
	return Event{Kind: KindAllNotesOff, Channel: channel}
}

// AllSoundOff returns an AllSoundOff event for channel.
func AllSoundOff(channel uint8) Event {
	return Event{Kind: KindAllSoundOff, Channel: channel}
}

// ProgramChangeEvent returns a ProgramChange event.
func ProgramChangeEvent(channel, program uint8) Event {
	return Event{Kind: KindProgramChange, Channel: channel, Program: program}
}

// ControlChangeEvent returns a ControlChange event.
func ControlChangeEvent(channel, controller, value uint8) Event {
	return Event{Kind: KindControlChange, Channel: channel, Controller: controller, Value: value}
}

// PitchBendEvent returns a PitchBend event. value is 0..16383.
func PitchBendEvent(channel uint8, value uint16) Event {
	return Event{Kind: KindPitchBend, Channel: channel, PitchBend: value}
}

// ChannelPressureEvent returns a ChannelPressure event.
func ChannelPressureEvent(channel, value uint8) Event {
	return Event{Kind: KindChannelPressure, Channel: channel, Pressure: value}
}

// PolyphonicKeyPressureEvent returns a PolyphonicKeyPressure event.
func PolyphonicKeyPressureEvent(channel, key, value uint8) Event {
	return Event{Kind: KindPolyphonicKeyPressure, Channel: channel, Key: key, Pressure: value}
}

// ChorusEvent returns an Effect event setting chorus send (0..1000).
func ChorusEvent(channel uint8, value int16) Event {
	return Event{Kind: KindEffect, Channel: channel, EffectKind: EffectChorus, EffectValue: value}
}

// ReverbEvent returns an Effect event setting reverb send (0..1000).
func ReverbEvent(channel uint8, value int16) Event {
	return Event{Kind: KindEffect, Channel: channel, EffectKind: EffectReverb, EffectValue: value}
}

// PanEvent returns an Effect event setting pan (-500..500).
func PanEvent(channel uint8, value int16) Event {
	return Event{Kind: KindEffect, Channel: channel, EffectKind: EffectPan, EffectValue: value}
}

// TimedEvent pairs an Event with the sample time at which it occurs.
type TimedEvent struct {
	Time  uint64
	Event Event
}

// less implements the total order from the data model: primary by Time
// ascending; at equal time, NoteOff precedes everything, NoteOn precedes
// everything except NoteOff, and all other events are mutually equal.
// Two events of the same rank at the same time compare equal, so a stable
// sort preserves their insertion order.
func less(a, b TimedEvent) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return rank(a.Event.Kind) < rank(b.Event.Kind)
}

func rank(k Kind) int {
	switch k {
	case KindNoteOff:
		return 0
	case KindNoteOn:
		return 1
	default:
		return 2
	}
}
