package bind

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"line-bind-bot/internal/config"
	"line-bind-bot/internal/database"
	"line-bind-bot/internal/keycloak"
	lineclient "line-bind-bot/internal/line/client"
	"line-bind-bot/internal/logger"
	"line-bind-bot/internal/richmenu"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	pushRecord struct {
		To       string `json:"to"`
		Messages []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"messages"`
	}

	lineRecorder struct {
		pushes    []pushRecord
		userBinds []string
	}
)

// 假 LINE API：選單已全數存在，ResolveAll 走重用路徑
func newLineServer(t *testing.T, rec *lineRecorder) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v2/bot/richmenu/list":
			_, _ = w.Write([]byte(`{"richmenus":[
				{"richMenuId":"rm-nb","name":"notBindingMenu"},
				{"richMenuId":"rm-u1","name":"user1Menu"},
				{"richMenuId":"rm-u2","name":"user2Menu"},
				{"richMenuId":"rm-admin","name":"adminMenu"}]}`))
		case r.URL.Path == "/v2/bot/message/push":
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var push pushRecord
			require.NoError(t, json.Unmarshal(body, &push))
			rec.pushes = append(rec.pushes, push)
			_, _ = w.Write([]byte(`{}`))
		case strings.HasPrefix(r.URL.Path, "/v2/bot/user/"):
			rec.userBinds = append(rec.userBinds, r.URL.Path)
			_, _ = w.Write([]byte(`{}`))
		case r.URL.Path == "/oauth2/v2.1/verify":
			_, _ = w.Write([]byte(`{"scope":"profile","client_id":"line-bot","expires_in":2591659}`))
		case r.URL.Path == "/v2/profile":
			_, _ = w.Write([]byte(`{"userId":"U1","displayName":"Alice","pictureUrl":"https://example.test/p.jpg"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newKeycloakServer(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/realms/demo/protocol/openid-connect/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"` + accessToken + `","token_type":"Bearer"}`))
		case "/realms/demo/protocol/openid-connect/userinfo":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"sub":"kc-123","preferred_username":"alice"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

type testApp struct {
	app   *gin.Engine
	store *database.Store
	line  *lineRecorder
}

func newTestApp(t *testing.T, roles []string) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.InitLogger(false, "")

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":                "kc-123",
		"preferred_username": "alice",
		"realm_access":       map[string]interface{}{"roles": roles},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	rec := &lineRecorder{}
	lineSrv := newLineServer(t, rec)
	t.Cleanup(lineSrv.Close)
	kcSrv := newKeycloakServer(t, accessToken)
	t.Cleanup(kcSrv.Close)

	cnf := &config.Conf{}
	cnf.Server.BasePath = "/app"
	cnf.Keycloak = config.Keycloak{
		AuthServerURL: kcSrv.URL,
		Realm:         "demo",
		ClientID:      "line-bot",
		ClientSecret:  "secret",
		RedirectURI:   "https://bot.example.test/app/callback",
	}

	store, err := database.Connect(filepath.Join(t.TempDir(), "bind.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	line := lineclient.New(config.Line{
		ChannelAccessToken: "token",
		ApiAddr:            lineSrv.URL,
		DataApiAddr:        lineSrv.URL,
	})

	registry := richmenu.NewRegistry(line, richmenu.InitMenus(""), t.TempDir())
	require.NoError(t, registry.ResolveAll(context.Background()))
	// 啟動時的 setDefault 不算進測試要驗的互動
	rec.userBinds = nil

	app := gin.New()
	app.Use(
		sessions.Sessions("bindsession", cookie.NewStore([]byte("session-secret"))),
		config.Inject("cnf", cnf),
		database.Inject("store", store),
		lineclient.Inject("line", line),
		keycloak.Inject("kc", keycloak.New(cnf.Keycloak)),
		richmenu.Inject("menus", registry),
	)
	InitRoutes(app, cnf)

	return &testApp{app: app, store: store, line: rec}
}

func (ta *testApp) get(path string, cookies []string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.Header.Add("Cookie", c)
	}
	w := httptest.NewRecorder()
	ta.app.ServeHTTP(w, req)
	return w
}

// startBind 走過第一步，回傳 session cookie 與導向網址帶的 state
func (ta *testApp) startBind(t *testing.T, lineUserID string) (cookies []string, state string) {
	t.Helper()

	w := ta.get("/app/start-bind?lineUserId="+lineUserID, nil)
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)

	cookies = w.Header().Values("Set-Cookie")
	require.NotEmpty(t, cookies)
	return cookies, location.Query().Get("state")
}

func TestStartBindMissingUser(t *testing.T) {
	ta := newTestApp(t, []string{"user2"})

	w := ta.get("/app/start-bind", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartBindRedirectsToKeycloak(t *testing.T) {
	ta := newTestApp(t, []string{"user2"})

	w := ta.get("/app/start-bind?lineUserId=U1", nil)
	require.Equal(t, http.StatusFound, w.Code)

	location := w.Header().Get("Location")
	assert.Contains(t, location, "/realms/demo/protocol/openid-connect/auth")
	assert.Contains(t, location, "client_id=line-bot")
	assert.Contains(t, location, "state=")
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestCallbackMissingCode(t *testing.T) {
	ta := newTestApp(t, []string{"user2"})

	w := ta.get("/app/callback", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallbackCompletesBind(t *testing.T) {
	ta := newTestApp(t, []string{"offline_access", "user2"})

	cookies, state := ta.startBind(t, "U1")

	w := ta.get("/app/callback?code=the-code&state="+state, cookies)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/app/liff-link?bind=success", w.Header().Get("Location"))

	// 綁定寫入
	b, err := ta.store.GetBinding(context.Background(), "U1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "kc-123", b.KcUserID)
	assert.Equal(t, "alice", b.Username)
	assert.Equal(t, database.ROLE_USER2, b.Role)

	// 一次推播通知
	require.Len(t, ta.line.pushes, 1)
	assert.Equal(t, "U1", ta.line.pushes[0].To)
	require.Len(t, ta.line.pushes[0].Messages, 1)
	assert.Contains(t, ta.line.pushes[0].Messages[0].Text, "已綁定")
	assert.Contains(t, ta.line.pushes[0].Messages[0].Text, "alice")
	assert.Contains(t, ta.line.pushes[0].Messages[0].Text, "user2")

	// 一次角色選單套用
	require.Len(t, ta.line.userBinds, 1)
	assert.Equal(t, "/v2/bot/user/U1/richmenu/rm-u2", ta.line.userBinds[0])
}

func TestCallbackRejectsForgedState(t *testing.T) {
	ta := newTestApp(t, []string{"user2"})

	cookies, _ := ta.startBind(t, "U1")

	w := ta.get("/app/callback?code=the-code&state=forged", cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)

	b, err := ta.store.GetBinding(context.Background(), "U1")
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Empty(t, ta.line.pushes)
}

func TestCallbackConsumesPendingBindOnce(t *testing.T) {
	ta := newTestApp(t, []string{"user2"})

	cookies, state := ta.startBind(t, "U1")

	first := ta.get("/app/callback?code=the-code&state="+state, cookies)
	require.Equal(t, http.StatusFound, first.Code)

	// 帶著第一次回應的 cookie 再呼叫一次，pendingBind 已被消費
	second := ta.get("/app/callback?code=the-code", first.Header().Values("Set-Cookie"))
	require.Equal(t, http.StatusFound, second.Code)

	assert.Len(t, ta.line.pushes, 1)
}

func TestCallbackWithoutPendingBind(t *testing.T) {
	ta := newTestApp(t, []string{"admin"})

	// 沒經過 start-bind，等同純登入
	w := ta.get("/app/callback?code=the-code", nil)
	require.Equal(t, http.StatusFound, w.Code)

	b, err := ta.store.GetBinding(context.Background(), "U1")
	require.NoError(t, err)
	assert.Nil(t, b)

	assert.Empty(t, ta.line.pushes)
	assert.Empty(t, ta.line.userBinds)
}

func TestVerifyLineMissingToken(t *testing.T) {
	ta := newTestApp(t, []string{"user2"})

	req := httptest.NewRequest(http.MethodPost, "/app/verify-line", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ta.app.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyLineReturnsProfile(t *testing.T) {
	ta := newTestApp(t, []string{"user2"})

	req := httptest.NewRequest(http.MethodPost, "/app/verify-line", strings.NewReader(`{"accessToken":"line-token"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ta.app.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Profile struct {
			UserID      string `json:"userId"`
			DisplayName string `json:"displayName"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "U1", body.Profile.UserID)
	assert.Equal(t, "Alice", body.Profile.DisplayName)
}

func TestCallbackGuestRoleFallback(t *testing.T) {
	ta := newTestApp(t, []string{"offline_access"})

	cookies, state := ta.startBind(t, "U1")

	w := ta.get("/app/callback?code=the-code&state="+state, cookies)
	require.Equal(t, http.StatusFound, w.Code)

	b, err := ta.store.GetBinding(context.Background(), "U1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, database.ROLE_GUEST, b.Role)

	// guest 沒有自己的選單，套用 notBinding
	require.Len(t, ta.line.userBinds, 1)
	assert.Equal(t, "/v2/bot/user/U1/richmenu/rm-nb", ta.line.userBinds[0])
}
