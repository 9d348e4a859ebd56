package badge

import (
	"context"
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"eduscan/internal/cloudinary"
	"eduscan/internal/directory"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 512

// doc is the strict JSON payload printed on badges. Keys are the first
// alias of each field the scanner recognizes.
type doc struct {
	ID       string `json:"ID"`
	Name     string `json:"alumno"`
	Grade    string `json:"grado,omitempty"`
	Guardian string `json:"Tutor,omitempty"`
	Contact  string `json:"contacto,omitempty"`
}

// Payload renders the badge text for a student.
func Payload(s directory.Student) (string, error) {
	raw, err := json.Marshal(doc{
		ID:       s.ID,
		Name:     s.Name,
		Grade:    known(s.Grade),
		Guardian: known(s.GuardianName),
		Contact:  known(s.GuardianContact),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func known(v string) string {
	if v == directory.Unknown {
		return ""
	}
	return v
}

// PNG encodes the student's badge payload as a QR code image.
func PNG(s directory.Student, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	text, err := Payload(s)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode badge for %s: %w", s.ID, err)
	}
	return png, nil
}

// Uploader stores a rendered badge and returns where it lives.
type Uploader interface {
	Upload(ctx context.Context, data []byte, publicID string) (*cloudinary.UploadResult, error)
}

// Publish renders and uploads a badge, returning its public URL.
func Publish(ctx context.Context, up Uploader, s directory.Student) (string, error) {
	png, err := PNG(s, DefaultSize)
	if err != nil {
		return "", err
	}
	res, err := up.Upload(ctx, png, s.ID)
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}
