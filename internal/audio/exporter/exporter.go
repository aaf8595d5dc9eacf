// Package exporter renders a composition offline into WAV, MP3, OGG,
// FLAC, or Standard MIDI files. Grounded on
// original_source/audio/src/exporter.rs (the Exporter settings struct
// and its per-format encode functions) and
// original_source/audio/src/conn.rs (Exportable construction, the decay
// tail, and the multi-file path/suffix policy).
package exporter

import (
	"fmt"
	"math"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/notewright/audiocore/internal/audio/event"
	"github.com/notewright/audiocore/internal/audio/music"
	"github.com/notewright/audiocore/internal/audio/synth"
)

// Format identifies the output container/codec.
type Format int

const (
	FormatWav Format = iota
	FormatMid
	FormatMP3
	FormatOgg
	FormatFlac
)

func (f Format) extension() string {
	switch f {
	case FormatWav:
		return ".wav"
	case FormatMid:
		return ".mid"
	case FormatMP3:
		return ".mp3"
	case FormatOgg:
		return ".ogg"
	case FormatFlac:
		return ".flac"
	default:
		return ""
	}
}

// MultiFileSuffix selects how per-track output filenames are
// disambiguated in multi-file mode.
type MultiFileSuffix int

const (
	SuffixChannel MultiFileSuffix = iota
	SuffixPreset
	SuffixChannelAndPreset
)

// Metadata holds the optional tag fields written into encoded files.
type Metadata struct {
	Title       string
	Artist      *string
	Album       *string
	Genre       *string
	Comment     *string
	TrackNumber *int
}

// Settings configures one export pass.
type Settings struct {
	Framerate       float64
	Metadata        Metadata
	Copyright       bool
	MP3BitRateKbps  int
	MP3Quality      int
	OggQuality      float32
	MultiFile       bool
	MultiFileSuffix MultiFileSuffix
	Format          Format
}

// DefaultSettings returns export settings matching the prototype's
// defaults: CD-quality WAV, no multi-file split.
func DefaultSettings() Settings {
	return Settings{
		Framerate:      music.DefaultFramerate,
		MP3BitRateKbps: 192,
		MP3Quality:     5,
		OggQuality:     0.6,
		Format:         FormatWav,
	}
}

// Exportable is one fully-scheduled track (or, in combined-file mode, one
// queue covering every playable track) ready to be rendered.
type Exportable struct {
	Queue        *event.Queue
	TotalSamples uint64
	Suffix       *string
}

// decayChunkSize is the block size used to detect the end of a
// synthesizer's release tail after the last scheduled event.
const decayChunkSize = 2048

// silenceThreshold is the per-sample amplitude below which a decay chunk
// counts as silent.
const silenceThreshold = 1e-7

// BuildExportables schedules the playable tracks of m for export at time
// t's BPM, gain-scaled by gain (0..1). When settings.MultiFile is false
// every track's events are merged into a single Exportable; otherwise
// one Exportable per track is produced with a distinguishing Suffix.
// Grounded on audio/src/conn.rs: start_export, enqueue_track_events.
func BuildExportables(m *music.Music, t music.Time, programs map[uint8]synth.Program, settings Settings, gain float32) []Exportable {
	tracks := m.PlayableTracks()

	if settings.MultiFile {
		exportables := make([]Exportable, 0, len(tracks))
		for _, track := range tracks {
			q, total := enqueueTrack(track, t, gain)
			suffix := fileSuffix(track, programs, settings.MultiFileSuffix)
			exportables = append(exportables, Exportable{Queue: q, TotalSamples: total, Suffix: &suffix})
		}
		return exportables
	}

	combined := &event.Queue{}
	var total uint64
	for _, track := range tracks {
		q, trackTotal := enqueueTrack(track, t, gain)
		for !q.IsEmpty() {
			tm, _ := q.PeekTime()
			for _, e := range q.Dequeue(tm) {
				combined.Enqueue(tm, e)
			}
		}
		if trackTotal > total {
			total = trackTotal
		}
	}
	combined.Sort()
	return []Exportable{{Queue: combined, TotalSamples: total}}
}

// enqueueTrack builds the event schedule for one track: AllSoundOff at
// t=0, then a NoteOn/NoteOff pair per note, gain-scaled. Unlike
// audio/src/conn.rs: enqueue_track_events, the NoteOff time is computed
// from the note's end, not its start; the prototype's version computes
// both events from note.start, which cuts every note to zero duration.
func enqueueTrack(track *music.MidiTrack, t music.Time, gain float32) (*event.Queue, uint64) {
	q := &event.Queue{}
	q.Enqueue(0, event.AllSoundOff(track.Channel))

	var t1 uint64
	for _, note := range track.Notes {
		start := t.PpqToSamples(note.Start)
		end := t.PpqToSamples(note.End)
		velocity := uint8(float32(note.Velocity) * gain)
		q.Enqueue(start, event.NoteOn(track.Channel, note.Key, velocity))
		q.Enqueue(end, event.NoteOff(track.Channel, note.Key))
		if end > t1 {
			t1 = end
		}
	}
	q.Sort()
	return q, t1
}

func fileSuffix(track *music.MidiTrack, programs map[uint8]synth.Program, kind MultiFileSuffix) string {
	channel := fmt.Sprintf("%d", track.Channel)
	program, ok := programs[track.Channel]
	switch kind {
	case SuffixPreset:
		if !ok {
			return channel
		}
		return program.Name
	case SuffixChannelAndPreset:
		if !ok {
			return channel
		}
		return fmt.Sprintf("%d_%s", track.Channel, program.Name)
	default:
		return channel
	}
}

// State describes the coarse phase of an export pass, for a UI polling
// loop.
type State int32

const (
	StateIdle State = iota
	StateRenderingAudio
	StateAppendingSilence
	StateWritingToDisk
	StateDone
)

// Progress is the observable state of an in-flight export: the current
// Exportable's phase, its total sample count, and how many of those
// samples have been rendered so far. ExportedSamples is monotonically
// non-decreasing and never exceeds TotalSamples within one Exportable.
type Progress struct {
	Phase           State
	TotalSamples    uint64
	ExportedSamples uint64
}

// Run renders every exportable through synthHandle and writes the
// resulting file(s) under basePath, publishing progress into progress.
// On any encode failure, progress is reset to StateIdle and the error is
// returned rather than left stuck mid-export. Grounded on
// audio/src/conn.rs: export.
func Run(exportables []Exportable, synthHandle *synth.Handle, settings Settings, basePath string, progress *atomic.Pointer[Progress]) error {
	for _, exp := range exportables {
		progress.Store(&Progress{Phase: StateRenderingAudio, TotalSamples: exp.TotalSamples})
		left, right := render(exp, synthHandle, func(exported uint64) {
			progress.Store(&Progress{Phase: StateRenderingAudio, TotalSamples: exp.TotalSamples, ExportedSamples: exported})
		})

		progress.Store(&Progress{Phase: StateAppendingSilence, TotalSamples: exp.TotalSamples, ExportedSamples: exp.TotalSamples})
		left, right = appendDecayTail(left, right, synthHandle)

		progress.Store(&Progress{Phase: StateWritingToDisk, TotalSamples: exp.TotalSamples, ExportedSamples: exp.TotalSamples})
		path := outputPath(basePath, exp.Suffix, settings)
		if err := encode(path, left, right, settings); err != nil {
			progress.Store(&Progress{Phase: StateIdle})
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}
	progress.Store(&Progress{Phase: StateDone})
	return nil
}

// render renders exp's scheduled events into PCM, calling onProgress
// (if non-nil) after each queue drain with the number of samples
// rendered so far, so callers can publish monotonically non-decreasing
// export progress.
func render(exp Exportable, synthHandle *synth.Handle, onProgress func(exported uint64)) (left, right []float32) {
	left = make([]float32, exp.TotalSamples)
	right = make([]float32, exp.TotalSamples)

	var t0 uint64
	for !exp.Queue.IsEmpty() {
		t, _ := exp.Queue.PeekTime()
		for _, e := range exp.Queue.Dequeue(t) {
			synthHandle.Send(e)
		}
		if t0 == t {
			sample := []float32{0}
			sampleR := []float32{0}
			synthHandle.Render(sample, sampleR)
			if int(t) < len(left) {
				left[t] = sample[0]
				right[t] = sampleR[0]
			}
		} else if t0 < uint64(len(left)) {
			hi := t
			if hi > uint64(len(left)) {
				hi = uint64(len(left))
			}
			synthHandle.Render(left[t0:hi], right[t0:hi])
		}
		t0 = t
		if onProgress != nil {
			onProgress(min(t0, exp.TotalSamples))
		}
	}
	return left, right
}

func appendDecayTail(left, right []float32, synthHandle *synth.Handle) ([]float32, []float32) {
	decayLeft := make([]float32, decayChunkSize)
	decayRight := make([]float32, decayChunkSize)
	for {
		synthHandle.Render(decayLeft, decayRight)
		decaying := false
		for i := range decayLeft {
			if abs32(decayLeft[i]) > silenceThreshold || abs32(decayRight[i]) > silenceThreshold {
				decaying = true
				break
			}
		}
		if !decaying {
			return left, right
		}
		left = append(left, decayLeft...)
		right = append(right, decayRight...)
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func outputPath(basePath string, suffix *string, settings Settings) string {
	if suffix == nil {
		return basePath
	}
	ext := filepath.Ext(basePath)
	stem := basePath[:len(basePath)-len(ext)]
	return fmt.Sprintf("%s_%s%s", stem, *suffix, ext)
}

func encode(path string, left, right []float32, settings Settings) error {
	switch settings.Format {
	case FormatWav:
		return writeWav(path, left, right, settings)
	case FormatMP3:
		return writeMP3(path, left, right, settings)
	case FormatOgg:
		return writeOgg(path, left, right, settings)
	case FormatFlac:
		return writeFlac(path, left, right, settings)
	default:
		panic(fmt.Sprintf("cannot encode format %d from rendered audio; .mid export does not render a synthesizer", settings.Format))
	}
}

func copyrightLine(artist string) string {
	return fmt.Sprintf("Copyright %d %s", time.Now().Year(), artist)
}

// floorToRange converts sample to the prototype's i16/i32 encoding,
// floor(f32 * 32767.5), clamped to the int16 range (both toInt16 and
// toInt32 share one 16-bit-precision scale; exporter.rs:531,536 floors
// rather than truncates, so a negative sample rounds toward -inf, not
// toward zero).
func floorToRange(sample float32) float64 {
	v := math.Floor(float64(sample) * 32767.5)
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return v
}

func toInt16(sample float32) int16 {
	return int16(floorToRange(sample))
}

func toInt32(sample float32) int32 {
	return int32(floorToRange(sample))
}
