package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaychat/internal/pkg/errs"
)

func TestValidateFileSize(t *testing.T) {
	assert.Nil(t, ValidateFileSize(1))
	assert.Nil(t, ValidateFileSize(MaxAttachmentSize))

	err := ValidateFileSize(0)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrAttachmentInvalid, err.Code)

	err = ValidateFileSize(MaxAttachmentSize + 1)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrFileSizeTooLarge, err.Code)
}

func TestValidateFileType(t *testing.T) {
	assert.Nil(t, ValidateFileType("image/png"))
	assert.Nil(t, ValidateFileType("IMAGE/JPEG"))
	assert.Nil(t, ValidateFileType("application/pdf"))

	err := ValidateFileType("application/x-sh")
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrAttachmentInvalid, err.Code)
}

func TestDecodeAttachmentMetadata(t *testing.T) {
	valid := json.RawMessage(`{"fileUrl":"https://cdn.example.com/a.png","fileSize":1024,"fileType":"image/png"}`)

	meta, customErr := DecodeAttachmentMetadata(valid)
	require.Nil(t, customErr)
	assert.Equal(t, "https://cdn.example.com/a.png", meta.FileURL)
	assert.EqualValues(t, 1024, meta.FileSize)

	cases := map[string]json.RawMessage{
		"missing":       nil,
		"not json":      json.RawMessage(`"nope"`),
		"no url":        json.RawMessage(`{"fileSize":10,"fileType":"image/png"}`),
		"bad url":       json.RawMessage(`{"fileUrl":"::","fileSize":10,"fileType":"image/png"}`),
		"bad mime":      json.RawMessage(`{"fileUrl":"https://x/y","fileSize":10,"fileType":"text/html"}`),
		"zero size":     json.RawMessage(`{"fileUrl":"https://x/y","fileSize":0,"fileType":"image/png"}`),
		"negative size": json.RawMessage(`{"fileUrl":"https://x/y","fileSize":-1,"fileType":"image/png"}`),
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, customErr := DecodeAttachmentMetadata(raw)
			assert.NotNil(t, customErr)
		})
	}
}
