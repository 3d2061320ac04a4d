package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
)

var ErrUploaderUnavailable = errors.New("object storage is not configured")

// UploadFile reads an uploaded form file and stores it under folder
func UploadFile(ctx context.Context, uploader Uploader, fh *multipart.FileHeader, folder string) (UploadResult, error) {
	if uploader == nil {
		return UploadResult{}, ErrUploaderUnavailable
	}

	data, err := ReadFile(fh)
	if err != nil {
		return UploadResult{}, err
	}

	return uploader.Upload(ctx, data, ContentType(fh), folder)
}

// ReadFile returns the content of an uploaded form file
func ReadFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return data, nil
}

// ContentType returns the declared MIME type of an uploaded form file
func ContentType(fh *multipart.FileHeader) string {
	ct := strings.TrimSpace(strings.SplitN(fh.Header.Get("Content-Type"), ";", 2)[0])
	if ct == "" {
		return "application/octet-stream"
	}
	return strings.ToLower(ct)
}
