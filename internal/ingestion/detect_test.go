package ingestion

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		fileName string
		forced   string
		want     FileType
	}{
		{"sgml header", "OFXHEADER:100\nDATA:OFXSGML\n", "statement.txt", "", FileTypeOFX},
		{"xml ofx", "<?xml version=\"1.0\"?>\n<ofx>\n</ofx>", "", "", FileTypeOFX},
		{"csv content", "日付,内容\n2025/01/01,x\n", "upload.bin", "", FileTypeCSV},
		{"csv by extension", "single column\n", "statement.CSV", "", FileTypeCSV},
		{"qfx by extension", "binaryish", "export.qfx", "", FileTypeOFX},
		{"forced wins", "OFXHEADER:100", "a.ofx", "csv", FileTypeCSV},
		{"forced qfx", "a,b", "a.csv", "QFX", FileTypeOFX},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFileType([]byte(tt.data), tt.fileName, tt.forced)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFileType_Unknown(t *testing.T) {
	_, err := DetectFileType([]byte("hello"), "notes.txt", "")
	assert.True(t, errors.Is(err, ErrUnknownFileType))

	_, err = DetectFileType([]byte("a,b"), "a.csv", "pdf")
	assert.True(t, errors.Is(err, ErrUnknownFileType))
}
