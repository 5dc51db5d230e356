package bind

import (
	"net/http"
	"path/filepath"

	"line-bind-bot/internal/config"
	lineclient "line-bind-bot/internal/line/client"
	"line-bind-bot/internal/logger"

	"github.com/gin-gonic/gin"
)

// InitRoutes 掛上綁定流程與 LIFF 相關的路由
func InitRoutes(app *gin.Engine, cnf *config.Conf) {
	logger.Info("Init bind endpoints...")

	base := app.Group(cnf.Server.BasePath)

	base.GET("/start-bind", StartBind)
	base.GET("/callback", Callback)
	base.POST("/verify-line", VerifyLine)

	if cnf.Server.PublicDir != "" {
		base.Static("/static", cnf.Server.PublicDir)
		base.GET("/liff-link", func(c *gin.Context) {
			c.File(filepath.Join(cnf.Server.PublicDir, "liff-link.html"))
		})
	}
}

// VerifyLine LIFF 前端用來驗證 LINE access token 並取回使用者資料
func VerifyLine(c *gin.Context) {
	line := c.MustGet("line").(*lineclient.Client)

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.BindJSON(&body); err != nil || body.AccessToken == "" {
		logger.Warning("[verify-line] 缺少 accessToken")
		c.JSON(http.StatusBadRequest, gin.H{"error": "No access token"})
		return
	}

	ctx := c.Request.Context()

	verify, err := line.VerifyAccessToken(ctx, body.AccessToken)
	if err != nil {
		logger.Warning("[verify-line] token verification failed:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "LINE token verification failed"})
		return
	}

	profile, err := line.GetProfile(ctx, body.AccessToken)
	if err != nil {
		logger.Warning("[verify-line] profile fetch failed:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "LINE token verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "LINE user verified",
		"profile": gin.H{
			"userId":      profile.UserID,
			"displayName": profile.DisplayName,
			"pictureUrl":  profile.PictureURL,
			"idToken":     verify.IDToken,
		},
	})
}
