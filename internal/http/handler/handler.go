// Package handler binds the document pipeline to HTTP: multipart decoding,
// upload safety, the concurrency gate, editor lifecycle, and response
// composition for the read and apply endpoints.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/draftops/redline-server/internal/config"
	"github.com/draftops/redline-server/internal/engine"
	"github.com/draftops/redline-server/internal/gate"
	"github.com/draftops/redline-server/internal/http/apierr"
	"github.com/draftops/redline-server/internal/http/middleware"
	"github.com/draftops/redline-server/pkg/zipx"
)

// Documents serves the /v1/read and /v1/apply endpoints.
type Documents struct {
	log  *zap.Logger
	cfg  *config.Config
	gate *gate.Gate
}

// NewDocuments wires the handler. The gate must be the one shared instance;
// it is the only cross-request state in the service.
func NewDocuments(log *zap.Logger, cfg *config.Config, g *gate.Gate) *Documents {
	return &Documents{log: log.Named("documents"), cfg: cfg, gate: g}
}

// reqLog returns the handler logger tagged with the request id.
func (h *Documents) reqLog(c *gin.Context) *zap.Logger {
	return h.log.With(zap.String("request_id", middleware.GetRequestID(c)))
}

func (h *Documents) defaultAuthor() engine.Author {
	return engine.Author{Name: h.cfg.AuthorName, Email: h.cfg.AuthorEmail}
}

// filePart pulls the uploaded document out of the multipart form. On failure
// it writes the error response and returns ok=false.
func (h *Documents) filePart(c *gin.Context) (data []byte, filename string, ok bool) {
	if ct := c.ContentType(); ct != "multipart/form-data" {
		apierr.Respond(c, http.StatusBadRequest, apierr.CodeInvalidContentType,
			"request must be multipart/form-data", nil)
		return nil, "", false
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierr.Respond(c, http.StatusRequestEntityTooLarge, apierr.CodePayloadTooLarge,
				"uploaded file exceeds the size limit", nil)
			return nil, "", false
		}
		apierr.Respond(c, http.StatusBadRequest, apierr.CodeMissingFile,
			"multipart field \"file\" is required", nil)
		return nil, "", false
	}

	f, err := fh.Open()
	if err != nil {
		h.reqLog(c).Error("open multipart file", zap.Error(err))
		apierr.Respond(c, http.StatusInternalServerError, apierr.CodeInternal, "", nil)
		return nil, "", false
	}
	defer f.Close()
	data, err = io.ReadAll(f)
	if err != nil {
		h.reqLog(c).Error("read multipart file", zap.Error(err))
		apierr.Respond(c, http.StatusInternalServerError, apierr.CodeInternal, "", nil)
		return nil, "", false
	}
	// An empty part is treated the same as a missing one.
	if len(data) == 0 {
		apierr.Respond(c, http.StatusBadRequest, apierr.CodeMissingFile,
			"multipart field \"file\" is empty", nil)
		return nil, "", false
	}
	return data, fh.Filename, true
}

// checkUpload runs the pre-parse safety checks: ZIP magic bytes, then the
// central-directory expansion inspection. A payload with a ZIP header but an
// unreadable directory is rejected by the inspection, never as a wrong file
// type.
func (h *Documents) checkUpload(c *gin.Context, data []byte) bool {
	if err := zipx.CheckMagic(data); err != nil {
		apierr.Respond(c, http.StatusBadRequest, apierr.CodeInvalidFileType,
			"file is not a DOCX (ZIP) archive", nil)
		return false
	}
	if err := zipx.Inspect(data, zipx.DefaultLimits); err != nil {
		apierr.Respond(c, http.StatusBadRequest, apierr.CodeZipBombDetected, err.Error(), nil)
		return false
	}
	return true
}

// acquireGate waits for an editor slot, mapping deadline expiry to 503.
func (h *Documents) acquireGate(c *gin.Context) bool {
	if err := h.gate.Acquire(c.Request.Context()); err != nil {
		apierr.Respond(c, http.StatusServiceUnavailable, apierr.CodeRequestTimeout,
			"request timed out waiting for an editor slot", nil)
		return false
	}
	return true
}

// sanitizeFilename reduces a client filename to a safe printable-ASCII token
// for the Content-Disposition header. Quotes, backslashes, CR/LF, and
// anything outside 0x20..0x7E are replaced; an empty result falls back to
// "document".
func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".docx")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r == '"' || r == '\\' || r == '\r' || r == '\n':
			sb.WriteByte('_')
		case r >= 0x20 && r <= 0x7E:
			sb.WriteRune(r)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "document"
	}
	return out
}
