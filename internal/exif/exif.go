package exif

import "fmt"

// Result describes whether a JPEG carries an EXIF (APP1) segment.
// Absence of camera metadata is itself a signal: screenshots, AI
// renders, and re-encoded images usually ship without it.
type Result struct {
	HasEXIF     bool   `json:"has_exif"`
	SegmentSize int    `json:"segment_size,omitempty"`
	Message     string `json:"message"`
}

const scanLimit = 65536

// Scan checks raw image bytes for an EXIF segment. It only identifies
// presence and segment size; full tag decoding is not needed because
// the detection prompt consumes a plain-text summary.
func Scan(data []byte) Result {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return Result{HasEXIF: false, Message: "Not a JPEG image"}
	}

	offset := 2
	for offset < len(data)-9 {
		if data[offset] == 0xFF && data[offset+1] == 0xE1 {
			segmentLength := int(data[offset+2])<<8 | int(data[offset+3])
			// APP1 payload starts with "Exif" when the segment is EXIF
			if data[offset+4] == 'E' && data[offset+5] == 'x' &&
				data[offset+6] == 'i' && data[offset+7] == 'f' {
				return Result{
					HasEXIF:     true,
					SegmentSize: segmentLength,
					Message:     "EXIF data present",
				}
			}
		}

		if data[offset] == 0xFF && offset+3 < len(data) {
			markerLength := int(data[offset+2])<<8 | int(data[offset+3])
			offset += 2 + markerLength
		} else {
			offset++
		}

		if offset > scanLimit {
			break
		}
	}

	return Result{
		HasEXIF: false,
		Message: "No EXIF data found - possible indicators: screenshot, AI-generated, or metadata stripped",
	}
}

// Summary renders the result as the metadata hint embedded in the
// detection prompt.
func (r Result) Summary() string {
	s := fmt.Sprintf("\n\nEXIF Metadata Analysis:\n- Has EXIF: %t\n- Details: %s", r.HasEXIF, r.Message)
	if r.SegmentSize > 0 {
		s += fmt.Sprintf("\n- Segment size: %d bytes", r.SegmentSize)
	}
	return s
}
