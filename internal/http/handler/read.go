package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/draftops/redline-server/internal/engine"
	"github.com/draftops/redline-server/internal/http/apierr"
	"github.com/draftops/redline-server/internal/ir"
)

// Read handles POST /v1/read: extract the IR of an uploaded document.
func (h *Documents) Read(c *gin.Context) {
	log := h.reqLog(c)

	data, filename, ok := h.filePart(c)
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
		Author: h.defaultAuthor(),
		Logger: log,
	})
	if err != nil {
		c.Error(err)
		apierr.Respond(c, http.StatusUnprocessableEntity, apierr.CodeDocumentLoadFailed, err.Error(), nil)
		return
	}
	defer cleanup()

	doc, err := ir.Extract(ed.Blocks(), filename, ir.Options{
		Format:              "docx",
		IncludeOutline:      true,
		IncludeDefinedTerms: true,
	})
	if err != nil {
		c.Error(err)
		apierr.Respond(c, http.StatusUnprocessableEntity, apierr.CodeExtractionFailed, err.Error(), nil)
		return
	}

	log.Info("document read", zap.String("filename", filename), zap.Int("blocks", doc.Metadata.BlockCount))
	c.JSON(http.StatusOK, doc)
}
