package domain

import (
	"fmt"
	"net/http"
	"strings"
)

var supportedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/heic": {},
	"image/heif": {},
}

// RoomImage is an encoded image payload: either the original upload, the
// decluttered variant, or a generated visualization.
type RoomImage struct {
	Data     []byte
	MIMEType string
}

// NewRoomImage validates an uploaded payload. The MIME type is sniffed from the
// bytes; the declared type is only trusted when sniffing is inconclusive (HEIC).
func NewRoomImage(data []byte, declared string) (RoomImage, error) {
	if len(data) == 0 {
		return RoomImage{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	mime := http.DetectContentType(data)
	if _, ok := supportedImageTypes[mime]; !ok {
		declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
		if _, ok := supportedImageTypes[declared]; !ok {
			return RoomImage{}, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, mime)
		}
		mime = declared
	}
	return RoomImage{Data: data, MIMEType: mime}, nil
}

// IsZero reports whether the image carries no payload.
func (i RoomImage) IsZero() bool {
	return len(i.Data) == 0
}

// Extension maps the MIME type to a file extension.
func (i RoomImage) Extension() string {
	switch i.MIMEType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/heic":
		return "heic"
	case "image/heif":
		return "heif"
	default:
		return "png"
	}
}
