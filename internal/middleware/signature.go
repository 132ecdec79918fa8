package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/morinaga/stockbot-backend/internal/logger"
)

// SignatureMiddleware validates the X-Line-Signature header: the base64
// HMAC-SHA256 of the raw request body keyed by the channel secret. An empty
// secret disables validation (local development only).
type SignatureMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewSignatureMiddleware(log *logger.Logger, channelSecret string) *SignatureMiddleware {
	middlewareLog := log.With("middleware", "SignatureMiddleware")
	if channelSecret == "" {
		middlewareLog.Warn("Channel secret not set, webhook signature validation is disabled")
		return &SignatureMiddleware{log: middlewareLog}
	}
	return &SignatureMiddleware{log: middlewareLog, secret: []byte(channelSecret)}
}

func (sm *SignatureMiddleware) Verify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(sm.secret) == 0 {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}
		// Hand the body back to the handler's decoder.
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		signature := c.GetHeader("X-Line-Signature")
		if signature == "" || !sm.validSignature(body, signature) {
			sm.log.Warn("Rejected webhook with bad signature", "signature", signature)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

func (sm *SignatureMiddleware) validSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
