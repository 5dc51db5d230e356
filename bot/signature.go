package bot

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"line-bind-bot/internal/logger"

	"github.com/gin-gonic/gin"
)

// ValidateSignature 驗證 LINE webhook 的 X-Line-Signature。
// channel secret 未設定時跳過驗證 (本機測試用)。
func ValidateSignature(channelSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if channelSecret == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		mac := hmac.New(sha256.New, []byte(channelSecret))
		mac.Write(body)
		expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(expected), []byte(c.GetHeader("X-Line-Signature"))) {
			logger.Warning("webhook signature mismatch")
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		c.Next()
	}
}
