package exporter

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/xlab/vorbis-go/encoder"
)

// writeOgg encodes left/right with libvorbis and splices in a Vorbis
// comment header built from settings.Metadata. Grounded on
// original_source/audio/src/exporter.rs: Exporter::ogg. The prototype's
// "description" comment is populated from metadata.genre rather than
// metadata.comment; that quirk is reproduced here rather than corrected.
func writeOgg(path string, left, right []float32, settings Settings) error {
	enc, err := encoder.NewEncoder(int(settings.Framerate), 2, float64(settings.OggQuality))
	if err != nil {
		return fmt.Errorf("create vorbis encoder: %w", err)
	}
	defer enc.Close()

	pcm := interleave(left, right)
	encoded, err := enc.Encode(pcm)
	if err != nil {
		return fmt.Errorf("encode vorbis samples: %w", err)
	}

	comments := oggComments(settings)
	packet := vorbisCommentPacket("audiocore", comments)
	out := replaceCommentHeader(encoded, packet)

	return os.WriteFile(path, out, 0o644)
}

func oggComments(settings Settings) []string {
	m := settings.Metadata
	comments := []string{
		"title=" + m.Title,
		"date=" + strconv.Itoa(time.Now().Year()),
	}
	if m.Artist != nil {
		comments = append(comments, "artist="+*m.Artist)
		if settings.Copyright {
			comments = append(comments, "copyright="+copyrightLine(*m.Artist))
		}
	}
	if m.Album != nil {
		comments = append(comments, "album="+*m.Album)
	}
	if m.Genre != nil {
		comments = append(comments, "genre="+*m.Genre)
	}
	if m.TrackNumber != nil {
		comments = append(comments, "tracknumber="+strconv.Itoa(*m.TrackNumber))
	}
	if m.Genre != nil {
		comments = append(comments, "description="+*m.Genre)
	}
	return comments
}

func interleave(left, right []float32) []float32 {
	out := make([]float32, len(left)*2)
	for i := range left {
		out[i*2] = left[i]
		out[i*2+1] = right[i]
	}
	return out
}
