package exporter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cocoonlife/goflac"
)

// writeFlac encodes left/right with libFLAC and writes a Vorbis comment
// block. Grounded on original_source/audio/src/exporter.rs:
// Exporter::flac. As with .ogg, the "description" comment is populated
// from metadata.genre rather than metadata.comment, reproducing the
// prototype's field mix-up rather than correcting it.
func writeFlac(path string, left, right []float32, settings Settings) error {
	enc, err := goflac.NewEncoder(path, 2, 16, int(settings.Framerate))
	if err != nil {
		return fmt.Errorf("create flac encoder: %w", err)
	}

	frame := goflac.Frame{
		Buffer: make([][]int32, 2),
	}
	frame.Buffer[0] = make([]int32, len(left))
	frame.Buffer[1] = make([]int32, len(right))
	for i := range left {
		frame.Buffer[0][i] = toInt32(left[i])
		frame.Buffer[1][i] = toInt32(right[i])
	}
	if err := enc.WriteFrame(frame); err != nil {
		enc.Close()
		return fmt.Errorf("write flac frame: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close flac encoder: %w", err)
	}

	return writeFlacTag(path, settings)
}

func writeFlacTag(path string, settings Settings) error {
	tag, err := goflac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("open flac for tagging: %w", err)
	}

	cmt := goflac.NewMetaDataBlockVorbisComment()
	m := settings.Metadata
	cmt.Add("TITLE", m.Title)
	cmt.Add("DATE", strconv.Itoa(time.Now().Year()))
	if m.Artist != nil {
		cmt.Add("ARTIST", *m.Artist)
		if settings.Copyright {
			cmt.Add("COPYRIGHT", copyrightLine(*m.Artist))
		}
	}
	if m.Album != nil {
		cmt.Add("ALBUM", *m.Album)
	}
	if m.Genre != nil {
		cmt.Add("GENRE", *m.Genre)
	}
	if m.TrackNumber != nil {
		cmt.Add("TRACK_NUMBER", strconv.Itoa(*m.TrackNumber))
	}
	if m.Genre != nil {
		cmt.Add("DESCRIPTION", *m.Genre)
	}

	tag.Meta = append(tag.Meta, cmt.Marshal())
	return tag.Save(path)
}
