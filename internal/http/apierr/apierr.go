// Package apierr is the single error surface of the HTTP API. Every error
// response goes through Respond so the envelope shape, message sanitization,
// and 5xx message policy hold everywhere.
package apierr

import "github.com/gin-gonic/gin"

// Code is a stable machine-readable error identifier.
type Code string

const (
	CodeMissingFile          Code = "MISSING_FILE"
	CodeMissingEdits         Code = "MISSING_EDITS"
	CodeInvalidEditsJSON     Code = "INVALID_EDITS_JSON"
	CodeInvalidEditsMarkdown Code = "INVALID_EDITS_MARKDOWN"
	CodeInvalidFileType      Code = "INVALID_FILE_TYPE"
	CodeZipBombDetected      Code = "ZIP_BOMB_DETECTED"
	CodeInvalidContentType   Code = "INVALID_CONTENT_TYPE"
	CodeInvalidEdits         Code = "INVALID_EDITS"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodePayloadTooLarge      Code = "PAYLOAD_TOO_LARGE"
	CodeDocumentLoadFailed   Code = "DOCUMENT_LOAD_FAILED"
	CodeExtractionFailed     Code = "EXTRACTION_FAILED"
	CodeApplyFailed          Code = "APPLY_FAILED"
	CodeRequestTimeout       Code = "REQUEST_TIMEOUT"
	CodeInternal             Code = "INTERNAL_ERROR"
)

// internalMessage replaces every 5xx message so server internals never reach
// a client.
const internalMessage = "An internal server error occurred"

type body struct {
	Error payload `json:"error"`
}

type payload struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details []any  `json:"details"`
}

// Respond writes the error envelope and aborts the handler chain. Messages on
// 5xx responses are replaced wholesale; 4xx messages are sanitized of paths
// and stack frames. Details is never null in the wire form.
func Respond(c *gin.Context, status int, code Code, message string, details []any) {
	if status >= 500 {
		message = internalMessage
	} else {
		message = Sanitize(message)
	}
	if details == nil {
		details = []any{}
	}
	c.AbortWithStatusJSON(status, body{Error: payload{
		Code:    code,
		Message: message,
		Details: details,
	}})
}
