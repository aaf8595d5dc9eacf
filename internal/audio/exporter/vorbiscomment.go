package exporter

import "encoding/binary"

// vorbisCommentPacket builds a raw Vorbis comment header packet: the
// "\x03vorbis" packet type/magic, a vendor string, and a list of
// "KEY=VALUE" user comments. Grounded on original_source's use of
// oggvorbismeta::CommentHeader/replace_comment_header, reimplemented
// directly against the Vorbis comment header spec since no packaged Go
// binding for it was found in the example pack.
func vorbisCommentPacket(vendor string, comments []string) []byte {
	var buf []byte
	buf = append(buf, 0x03)
	buf = append(buf, "vorbis"...)
	buf = appendLengthPrefixed(buf, vendor)
	buf = appendUint32(buf, uint32(len(comments)))
	for _, c := range comments {
		buf = appendLengthPrefixed(buf, c)
	}
	buf = append(buf, 1) // framing bit
	return buf
}

func appendLengthPrefixed(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// oggCRCTable is the CRC-32 table (polynomial 0x04c11db7, no reflection)
// used to checksum Ogg pages.
var oggCRCTable = buildOggCRCTable()

func buildOggCRCTable() [256]uint32 {
	var table [256]uint32
	const poly = 0x04c11db7
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

func oggPageCRC(page []byte) uint32 {
	var crc uint32
	for _, b := range page {
		crc = (crc << 8) ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}

// replaceCommentHeader replaces the payload of the second Ogg page (the
// Vorbis comment header page, immediately following the identification
// header page) in oggData with packet, and fixes up that page's CRC.
// Assumes the encoder emits the comment header as a single complete page,
// true of libvorbis's default encoder output.
func replaceCommentHeader(oggData []byte, packet []byte) []byte {
	pages := splitOggPages(oggData)
	if len(pages) < 2 {
		return oggData
	}
	pages[1] = rebuildOggPage(pages[1], packet)

	out := make([]byte, 0, len(oggData)+len(packet))
	for _, p := range pages {
		out = append(out, p...)
	}
	return out
}

// splitOggPages splits a raw Ogg stream into its constituent pages.
func splitOggPages(data []byte) [][]byte {
	var pages [][]byte
	for i := 0; i+27 <= len(data); {
		if string(data[i:i+4]) != "OggS" {
			break
		}
		numSegments := int(data[i+26])
		headerLen := 27 + numSegments
		if i+headerLen > len(data) {
			break
		}
		bodyLen := 0
		for s := 0; s < numSegments; s++ {
			bodyLen += int(data[i+27+s])
		}
		total := headerLen + bodyLen
		if i+total > len(data) {
			total = len(data) - i
		}
		pages = append(pages, data[i:i+total])
		i += total
	}
	return pages
}

// rebuildOggPage replaces page's single-packet payload with packet,
// recomputing the lacing values and CRC. The page is assumed to carry
// exactly one packet (segments summing to less than 255 per lacing
// value), which holds for a standalone comment header page.
func rebuildOggPage(page []byte, packet []byte) []byte {
	lacing := lacingValues(len(packet))
	header := make([]byte, 27+len(lacing))
	copy(header, page[:22])
	header[26] = byte(len(lacing))
	copy(header[27:], lacing)
	for i := 22; i < 26; i++ {
		header[i] = 0 // CRC cleared before recompute
	}

	out := append(header, packet...)
	crc := oggPageCRC(out)
	binary.LittleEndian.PutUint32(out[22:26], crc)
	return out
}

func lacingValues(length int) []byte {
	var lacing []byte
	for length >= 255 {
		lacing = append(lacing, 255)
		length -= 255
	}
	lacing = append(lacing, byte(length))
	return lacing
}
