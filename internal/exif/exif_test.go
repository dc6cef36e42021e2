package exif

import (
	"strings"
	"testing"
)

// buildJPEG assembles a minimal JPEG byte stream with the given segments.
func buildJPEG(segments ...[]byte) []byte {
	data := []byte{0xFF, 0xD8}
	for _, s := range segments {
		data = append(data, s...)
	}
	return data
}

func exifSegment(payloadSize int) []byte {
	payload := append([]byte("Exif\x00\x00"), make([]byte, payloadSize)...)
	length := len(payload) + 2
	seg := []byte{0xFF, 0xE1, byte(length >> 8), byte(length & 0xFF)}
	return append(seg, payload...)
}

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		hasEXIF bool
		message string
	}{
		{
			name:    "not a jpeg",
			data:    []byte("GIF89a"),
			hasEXIF: false,
			message: "Not a JPEG image",
		},
		{
			name:    "empty input",
			data:    nil,
			hasEXIF: false,
			message: "Not a JPEG image",
		},
		{
			name:    "jpeg with exif",
			data:    buildJPEG(exifSegment(32)),
			hasEXIF: true,
			message: "EXIF data present",
		},
		{
			name:    "jpeg without exif",
			data:    buildJPEG([]byte{0xFF, 0xDB, 0x00, 0x04, 0x00, 0x00}),
			hasEXIF: false,
			message: "No EXIF data found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(tt.data)
			if got.HasEXIF != tt.hasEXIF {
				t.Errorf("HasEXIF = %t, want %t", got.HasEXIF, tt.hasEXIF)
			}
			if !strings.Contains(got.Message, tt.message) {
				t.Errorf("Message = %q, want it to contain %q", got.Message, tt.message)
			}
		})
	}
}

func TestScanSegmentSize(t *testing.T) {
	res := Scan(buildJPEG(exifSegment(64)))
	if !res.HasEXIF {
		t.Fatal("expected EXIF to be detected")
	}
	if res.SegmentSize == 0 {
		t.Error("expected non-zero segment size")
	}
}

func TestSummary(t *testing.T) {
	res := Scan(buildJPEG(exifSegment(16)))
	summary := res.Summary()
	if !strings.Contains(summary, "Has EXIF: true") {
		t.Errorf("summary missing EXIF flag: %q", summary)
	}
	if !strings.Contains(summary, "Segment size") {
		t.Errorf("summary missing segment size: %q", summary)
	}

	none := Scan([]byte("plain text")).Summary()
	if !strings.Contains(none, "Has EXIF: false") {
		t.Errorf("summary missing EXIF flag: %q", none)
	}
}
