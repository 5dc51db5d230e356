package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"line-bind-bot/internal/config"
	"line-bind-bot/internal/database"
	"line-bind-bot/internal/keycloak"
	lineclient "line-bind-bot/internal/line/client"
	"line-bind-bot/internal/line/requests"
	"line-bind-bot/internal/logger"
	"line-bind-bot/internal/richmenu"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// session 鍵值
const (
	SESSION_PENDING_BIND     = "pendingBind"
	SESSION_OAUTH_STATE      = "oauthState"
	SESSION_IS_LOGGED_IN     = "isLoggedIn"
	SESSION_USERNAME         = "username"
	SESSION_ROLE             = "role"
	SESSION_KC_USER_ID       = "kcUserId"
	SESSION_LAST_BIND_RESULT = "lastBindResult"
)

// BindResult 綁定結果，序列化後存 session 供 LIFF 頁面顯示
type BindResult struct {
	Ok         bool   `json:"ok"`
	LineUserID string `json:"lineUserId,omitempty"`
	KcUserID   string `json:"kcUserId,omitempty"`
	Username   string `json:"username,omitempty"`
	Role       string `json:"role,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StartBind 綁定流程第一步。把 lineUserId 存進 session 再導向 Keycloak 登入頁。
// 這裡不做 token 交換，callback 回來才會寫任何資料。
func StartBind(c *gin.Context) {
	kc := c.MustGet("kc").(*keycloak.Client)

	lineUserID := c.Query("lineUserId")
	if lineUserID == "" {
		c.String(http.StatusBadRequest, "Missing lineUserId")
		return
	}

	state := uuid.NewString()

	session := sessions.Default(c)
	session.Set(SESSION_PENDING_BIND, lineUserID)
	session.Set(SESSION_OAUTH_STATE, state)
	if err := session.Save(); err != nil {
		logger.Warning("[START-BIND] failed to save session:", err)
		c.String(http.StatusInternalServerError, "Session error")
		return
	}

	logger.Info("[START-BIND] pendingBind set to", lineUserID)
	c.Redirect(http.StatusFound, kc.AuthCodeURL(state))
}

// Callback Keycloak 導回來的第二步。換 token、取身分，若 session 有
// pendingBind 就寫入綁定並通知使用者；沒有的話只建立登入 session。
func Callback(c *gin.Context) {
	cnf := c.MustGet("cnf").(*config.Conf)
	kc := c.MustGet("kc").(*keycloak.Client)

	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Missing code")
		return
	}

	session := sessions.Default(c)

	// start-bind 發出的 state 必須原封不動帶回來
	if expected, ok := session.Get(SESSION_OAUTH_STATE).(string); ok && expected != "" {
		session.Delete(SESSION_OAUTH_STATE)
		if c.Query("state") != expected {
			_ = session.Save()
			logger.Warning("[OIDC callback] state mismatch")
			c.String(http.StatusBadRequest, "Invalid state")
			return
		}
	}

	tokens, err := kc.Exchange(c.Request.Context(), code)
	if err != nil {
		logger.Warning("[OIDC callback] token exchange failed:", err)
		c.String(http.StatusInternalServerError, "OIDC callback failed")
		return
	}

	userinfo, err := kc.UserInfo(c.Request.Context(), tokens.AccessToken)
	if err != nil {
		logger.Warning("[OIDC callback] userinfo failed:", err)
		c.String(http.StatusInternalServerError, "OIDC callback failed")
		return
	}

	identity, err := keycloak.DecodeIdentity(tokens.AccessToken)
	if err != nil {
		logger.Warning("[OIDC callback] decode identity failed:", err)
		c.String(http.StatusInternalServerError, "OIDC callback failed")
		return
	}

	session.Set(SESSION_IS_LOGGED_IN, true)
	session.Set(SESSION_USERNAME, userinfo.PreferredUsername)
	session.Set(SESSION_ROLE, identity.Role)
	session.Set(SESSION_KC_USER_ID, identity.KcUserID)

	logger.Info("[OIDC callback] login ok for", identity.Username)
	logger.Info("[OIDC callback] role", identity.Role)

	if pending, ok := session.Get(SESSION_PENDING_BIND).(string); ok && pending != "" {
		logger.Info("[OIDC callback] pendingBind found:", pending)
		completeBind(c, session, pending, identity)
		// 無論成敗 pendingBind 只消費一次
		session.Delete(SESSION_PENDING_BIND)
	}

	if err := session.Save(); err != nil {
		logger.Warning("[OIDC callback] failed to save session:", err)
	}

	c.Redirect(http.StatusFound, cnf.Server.BasePath+"/liff-link?bind=success")
}

// completeBind 綁定的三個副作用：寫入資料庫、推播通知、套用角色選單。
// 寫入成功即算綁定成功，後兩者失敗只記 log 不回滾。
func completeBind(c *gin.Context, session sessions.Session, lineUserID string, identity keycloak.Identity) {
	store := c.MustGet("store").(*database.Store)
	line := c.MustGet("line").(*lineclient.Client)
	menus := c.MustGet("menus").(*richmenu.Registry)

	ctx := c.Request.Context()

	err := store.UpsertBinding(ctx, lineUserID, identity.KcUserID, identity.Username, identity.Role)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			logger.Warning("[callback] binding conflict:", err)
		} else {
			logger.Warning("[callback] bind update failed:", err)
		}
		saveBindResult(session, BindResult{Ok: false, Error: err.Error()})
		return
	}
	logger.Info("[callback] binding saved for", lineUserID)

	saveBindResult(session, BindResult{
		Ok:         true,
		LineUserID: lineUserID,
		KcUserID:   identity.KcUserID,
		Username:   identity.Username,
		Role:       identity.Role,
		Message:    "綁定成功",
	})

	text := fmt.Sprintf("✅ 已綁定\n使用者：%s\n角色：%s", identity.Username, identity.Role)
	if err := line.Push(ctx, lineUserID, requests.NewTextMessage(text)); err != nil {
		logger.Warning("[callback] push message failed:", err)
	}

	if err := menus.Assign(ctx, lineUserID, identity.Role); err != nil {
		logger.Warning("[callback] assign rich menu failed:", err)
	}
}

func saveBindResult(session sessions.Session, result BindResult) {
	data, err := json.Marshal(result)
	if err != nil {
		logger.Warning("[callback] failed to marshal bind result:", err)
		return
	}
	session.Set(SESSION_LAST_BIND_RESULT, string(data))
}
