package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/draftops/redline-server/internal/apply"
	"github.com/draftops/redline-server/internal/edit"
	"github.com/draftops/redline-server/internal/engine"
	"github.com/draftops/redline-server/internal/http/apierr"
	"github.com/draftops/redline-server/internal/ir"
	"github.com/draftops/redline-server/pkg/zipx"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Apply handles POST /v1/apply: validate a batch of edits against the
// document's IR and either report (dry_run) or apply them all and return the
// redlined DOCX. Validation failure rejects the whole batch; no partial apply
// ever reaches the export.
func (h *Documents) Apply(c *gin.Context) {
	log := h.reqLog(c)

	data, filename, ok := h.filePart(c)
	if !ok {
		return
	}

	edits, author, ok := h.editsField(c)
	if !ok {
		return
	}

	if !h.checkUpload(c, data) {
		return
	}
	if !h.acquireGate(c) {
		return
	}
	defer h.gate.Release()

	ed, cleanup, err := engine.Open(data, engine.Options{
		Mode:   engine.ModeSuggesting,
		Author: author,
		Logger: log,
	})
	if err != nil {
		c.Error(err)
		apierr.Respond(c, http.StatusUnprocessableEntity, apierr.CodeDocumentLoadFailed, err.Error(), nil)
		return
	}
	defer cleanup()

	doc, err := ir.Extract(ed.Blocks(), filename, ir.Options{Format: "docx", IncludeOutline: true})
	if err != nil {
		c.Error(err)
		apierr.Respond(c, http.StatusUnprocessableEntity, apierr.CodeExtractionFailed, err.Error(), nil)
		return
	}

	report := edit.Validate(edits, doc)

	if c.Query("dry_run") == "true" {
		c.JSON(http.StatusOK, report)
		return
	}

	if !report.Valid {
		details := make([]any, len(report.Issues))
		for i, issue := range report.Issues {
			details[i] = issue
		}
		apierr.Respond(c, http.StatusBadRequest, apierr.CodeInvalidEdits, "edits failed validation", details)
		return
	}

	res, err := apply.Run(edits, doc, ed, author, log)
	if err != nil {
		c.Error(err)
		apierr.Respond(c, http.StatusUnprocessableEntity, apierr.CodeApplyFailed, err.Error(), nil)
		return
	}

	out, err := ed.Export()
	if err != nil {
		c.Error(err)
		apierr.Respond(c, http.StatusUnprocessableEntity, apierr.CodeApplyFailed, err.Error(), nil)
		return
	}

	// Recompression failure is an availability trade-off, not a request
	// failure: fall back to the exporter's buffer.
	final, err := zipx.Recompress(out)
	if err != nil {
		log.Warn("recompression failed, returning uncompressed export", zap.Error(err))
		final = out
	}

	log.Info("edits applied",
		zap.Int("applied", res.Applied),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("warnings", report.Summary.WarningCount),
	)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sanitizeFilename(filename)+"-edited.docx"))
	c.Header("X-Edits-Applied", fmt.Sprintf("%d", res.Applied))
	c.Header("X-Edits-Skipped", fmt.Sprintf("%d", len(res.Skipped)))
	c.Header("X-Warnings", fmt.Sprintf("%d", report.Summary.WarningCount))
	c.Data(http.StatusOK, docxContentType, final)
}

// editsField decodes the multipart "edits" field, choosing the markdown or
// JSON decoder by the payload's leading shape. A markdown Metadata section
// may override the batch author.
func (h *Documents) editsField(c *gin.Context) ([]edit.Edit, engine.Author, bool) {
	author := h.defaultAuthor()

	text := c.Request.FormValue("edits")
	if text == "" {
		apierr.Respond(c, http.StatusBadRequest, apierr.CodeMissingEdits,
			"multipart field \"edits\" is required", nil)
		return nil, author, false
	}

	switch edit.DetectFormat(text) {
	case edit.FormatMarkdown:
		res, err := edit.DecodeMarkdown(text)
		if err != nil {
			apierr.Respond(c, http.StatusBadRequest, apierr.CodeInvalidEditsMarkdown, err.Error(), nil)
			return nil, author, false
		}
		for _, w := range res.Warnings {
			h.reqLog(c).Warn("markdown edits", zap.String("warning", w))
		}
		if res.Meta.AuthorName != "" {
			author = engine.Author{Name: res.Meta.AuthorName, Email: res.Meta.AuthorEmail}
		}
		return res.Edits, author, true
	default:
		edits, err := edit.DecodeJSON(text)
		if err != nil {
			if errors.Is(err, edit.ErrNotArray) {
				apierr.Respond(c, http.StatusBadRequest, apierr.CodeMissingEdits,
					"edits must be a JSON array", nil)
				return nil, author, false
			}
			apierr.Respond(c, http.StatusBadRequest, apierr.CodeInvalidEditsJSON, err.Error(), nil)
			return nil, author, false
		}
		return edits, author, true
	}
}
