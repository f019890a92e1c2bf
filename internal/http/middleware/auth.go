package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/draftops/redline-server/internal/http/apierr"
)

// authDeniedMessage is constant across every failure mode so responses do not
// reveal whether the header was missing, malformed, or wrong.
const authDeniedMessage = "Invalid or missing API key"

// RequireBearer blocks access unless the request carries
// `Authorization: Bearer <token>` with the configured token. The comparison
// is constant-time over fixed-size digests so token length does not leak.
func RequireBearer(apiKey string) gin.HandlerFunc {
	want := sha256.Sum256([]byte(apiKey))

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			deny(c)
			return
		}
		got := sha256.Sum256([]byte(token))
		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			deny(c)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := header[len(prefix):]
	return token, token != ""
}

func deny(c *gin.Context) {
	apierr.Respond(c, http.StatusUnauthorized, apierr.CodeUnauthorized, authDeniedMessage, nil)
}
