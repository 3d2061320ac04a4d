package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formFile(t *testing.T, name, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

type recordingUploader struct {
	data     []byte
	mimeType string
	folder   string
}

func (r *recordingUploader) Upload(_ context.Context, data []byte, mimeType, folder string) (UploadResult, error) {
	r.data, r.mimeType, r.folder = data, mimeType, folder
	return UploadResult{SecureURL: "https://cdn.example.com/" + folder + "/k", Key: folder + "/k"}, nil
}

func TestUploadFile(t *testing.T) {
	fh := formFile(t, "notes.pdf", "Application/PDF; charset=binary", []byte("%PDF-1.7"))
	uploader := &recordingUploader{}

	result, err := UploadFile(context.Background(), uploader, fh, "courses")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/courses/k", result.SecureURL)
	assert.Equal(t, []byte("%PDF-1.7"), uploader.data)
	assert.Equal(t, "application/pdf", uploader.mimeType)
	assert.Equal(t, "courses", uploader.folder)
}

func TestUploadFileWithoutUploader(t *testing.T) {
	fh := formFile(t, "notes.pdf", "application/pdf", []byte("x"))

	_, err := UploadFile(context.Background(), nil, fh, "courses")
	assert.ErrorIs(t, err, ErrUploaderUnavailable)
}

func TestContentTypeDefault(t *testing.T) {
	fh := formFile(t, "blob", "", []byte("x"))
	assert.Equal(t, "application/octet-stream", ContentType(fh))
}
