package pdfvalidation

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "not a pdf", in: "hello %%EOF and lots of trailing bytes", want: "hello %%EOF and lots of trailing bytes"},
		{name: "no eof marker", in: "%PDF-1.4 body without marker", want: "%PDF-1.4 body without marker"},
		{name: "short trailer kept", in: "%PDF-1.4 body %%EOF\n", want: "%PDF-1.4 body %%EOF\n"},
		{name: "junk after eof dropped", in: "%PDF-1.4 body %%EOF\r\nGARBAGE-GARBAGE-GARBAGE", want: "%PDF-1.4 body %%EOF\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Sanitize([]byte(tt.in))))
		})
	}
}

func TestOpenRejects(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		limits  Limits
		wantErr error
		wantMsg string
	}{
		{name: "empty", content: nil, limits: SubmissionLimits, wantErr: ErrEmpty},
		{name: "missing header", content: []byte("<html></html>"), limits: SubmissionLimits, wantErr: ErrMissingHeader},
		{
			name:    "too large",
			content: append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 1<<20)...),
			limits:  Limits{MaxFileSizeMB: 1, MaxPages: 5, Label: "submission"},
			wantMsg: "File size exceeds maximum allowed size of 1MB",
		},
		{name: "unparseable", content: []byte("%PDF-1.4 nothing else"), limits: SubmissionLimits, wantMsg: "failed to parse PDF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := Open(tt.content, tt.limits)
			require.Error(t, err)
			assert.Nil(t, reader)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLimitErrorIsDistinguishable(t *testing.T) {
	_, err := Open(append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 1<<20)...), Limits{MaxFileSizeMB: 1})

	var limitErr *LimitError
	assert.True(t, errors.As(err, &limitErr))
}
