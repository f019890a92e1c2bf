package apierr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, status int, code Code, message string, details []any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Respond(c, status, code, message, details)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "body: %s", w.Body.String())
	return w, errObj
}

func TestRespondEnvelope(t *testing.T) {
	w, errObj := respond(t, http.StatusBadRequest, CodeMissingFile, "file is required", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", errObj["code"])
	assert.Equal(t, "file is required", errObj["message"])
	details, ok := errObj["details"].([]any)
	require.True(t, ok, "details must be an array, never null")
	assert.Empty(t, details)
}

func TestRespondReplacesServerErrorMessages(t *testing.T) {
	_, errObj := respond(t, http.StatusInternalServerError, CodeInternal,
		"open /var/lib/redline/tmp/doc.docx: permission denied", nil)
	assert.Equal(t, "An internal server error occurred", errObj["message"])
}

func TestRespondKeepsDetails(t *testing.T) {
	_, errObj := respond(t, http.StatusBadRequest, CodeInvalidEdits, "edits failed validation",
		[]any{map[string]any{"editIndex": 0}})
	details := errObj["details"].([]any)
	require.Len(t, details, 1)
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain message untouched", "block \"b001\" not found", "block \"b001\" not found"},
		{"unix path", "open /var/lib/redline/doc.docx: no such file", "open [path]: no such file"},
		{"module path", "github.com/draftops/redline-server/internal/engine: boom", "[module]: boom"},
		{"line and column", "parse error at document.xml:14:7", "parse error at document.xml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestSanitizeStripsFrames(t *testing.T) {
	in := "something failed\n  at runtime.main (proc.go)\n\n\ndetail line"
	out := Sanitize(in)
	assert.NotContains(t, out, "at runtime.main")
	assert.NotContains(t, out, "\n\n")
	assert.Contains(t, out, "detail line")
}
