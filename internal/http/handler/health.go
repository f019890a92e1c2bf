package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness. It touches neither the gate nor any editor state.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
