package ingestion

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownFileType     = errors.New("unknown file type")
	ErrTooManyTransactions = errors.New("too many transactions")
)

// ParseFailedError reports a statement that yielded no usable transactions.
// Details carries the parser's messages for the client.
type ParseFailedError struct {
	FileType FileType
	Details  []string
	Err      error
}

func (e *ParseFailedError) Error() string {
	msg := fmt.Sprintf("%s parse failed", e.FileType)
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return msg
}

func (e *ParseFailedError) Unwrap() error {
	return e.Err
}
