package ingestion

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// FileType is the statement container format.
type FileType string

const (
	FileTypeCSV FileType = "csv"
	FileTypeOFX FileType = "ofx"
)

// DetectFileType resolves the format of an upload. A forced type wins; then
// the content is sniffed; the file extension is the last resort.
func DetectFileType(data []byte, fileName, forced string) (FileType, error) {
	switch strings.ToLower(strings.TrimSpace(forced)) {
	case "":
	case "csv":
		return FileTypeCSV, nil
	case "ofx", "qfx":
		return FileTypeOFX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFileType, forced)
	}

	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	head = bytes.TrimPrefix(head, utf8BOM)
	upper := bytes.ToUpper(bytes.TrimSpace(head))
	if bytes.HasPrefix(upper, []byte("OFXHEADER")) || bytes.Contains(upper, []byte("<OFX>")) {
		return FileTypeOFX, nil
	}
	firstLine := upper
	if i := bytes.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	if bytes.IndexByte(firstLine, ',') >= 0 {
		return FileTypeCSV, nil
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FileTypeCSV, nil
	case ".ofx", ".qfx":
		return FileTypeOFX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFileType, fileName)
}
