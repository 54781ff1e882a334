package domain

import "errors"

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeWarn  NoticeLevel = "warn"
	NoticeError NoticeLevel = "error"
)

// Canonical user-facing messages.
const (
	NoticeSelectText      = "Please select text first."
	NoticeOperationFailed = "Operation failed."
	NoticeNoResult        = "No result from AI"
	NoticeBackendError    = "Error calling backend"
	NoticeInsertFailed    = "Could not insert the result into the document"
)

// Notice is a message for the presentation layer's notice channel.
type Notice struct {
	Level   NoticeLevel
	Message string
	Err     error
}

// DetailFor returns the per-kind message for a failed invocation.
func DetailFor(err error) string {
	switch {
	case errors.Is(err, ErrNoSelection):
		return NoticeSelectText
	case errors.Is(err, ErrEmptyResult):
		return NoticeNoResult
	case errors.Is(err, ErrDocumentMutation):
		return NoticeInsertFailed
	case errors.Is(err, ErrTransport), errors.Is(err, ErrProtocol):
		return NoticeBackendError
	}
	return NoticeOperationFailed
}
