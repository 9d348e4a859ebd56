package badge

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eduscan/internal/cloudinary"
	"eduscan/internal/directory"
	"eduscan/internal/payload"
)

var ana = directory.Student{ID: "STU001", Name: "Ana García", Grade: "5to A", GuardianName: "Carlos García", GuardianContact: "+51 987654321"}

func TestPayload_ParsesBack(t *testing.T) {
	text, err := Payload(ana)
	require.NoError(t, err)

	id, format := payload.ParseWithFormat(text)
	require.NotNil(t, id)
	assert.Equal(t, payload.FormatJSON, format)
	assert.Equal(t, payload.Identity{ID: "STU001", Name: "Ana García", Grade: "5to A", Guardian: "Carlos García", Contact: "+51 987654321"}, *id)
}

func TestPayload_OmitsUnknown(t *testing.T) {
	text, err := Payload(directory.FromIdentity("74859632", "JUAN PEREZ", "", "", ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ID":"74859632","alumno":"JUAN PEREZ"}`, text)
}

func TestPNG(t *testing.T) {
	png, err := PNG(ana, 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))
}

type mockUploader struct{ mock.Mock }

func (m *mockUploader) Upload(ctx context.Context, data []byte, publicID string) (*cloudinary.UploadResult, error) {
	args := m.Called(ctx, data, publicID)
	res, _ := args.Get(0).(*cloudinary.UploadResult)
	return res, args.Error(1)
}

func TestPublish(t *testing.T) {
	up := &mockUploader{}
	up.On("Upload", mock.Anything, mock.Anything, "STU001").
		Return(&cloudinary.UploadResult{SecureURL: "https://res.example/STU001.png"}, nil)

	url, err := Publish(context.Background(), up, ana)
	require.NoError(t, err)
	assert.Equal(t, "https://res.example/STU001.png", url)
	up.AssertExpectations(t)
}
