package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"line-bind-bot/internal/config"
	"line-bind-bot/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type (
	// Client Keycloak OIDC 客戶端
	Client struct {
		authServerURL string
		realm         string
		clientID      string
		clientSecret  string
		redirectURI   string

		cl *http.Client
	}

	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IDToken      string `json:"id_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
	}

	UserInfo struct {
		Sub               string `json:"sub"`
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
		Name              string `json:"name"`
	}

	// Identity 從 access token claims 取出的身分資訊
	Identity struct {
		KcUserID string
		Username string
		Role     string
	}

	accessTokenClaims struct {
		PreferredUsername string `json:"preferred_username"`
		RealmAccess       struct {
			Roles []string `json:"roles"`
		} `json:"realm_access"`
		jwt.RegisteredClaims
	}
)

func New(cnf config.Keycloak) *Client {
	return &Client{
		authServerURL: strings.TrimRight(cnf.AuthServerURL, "/"),
		realm:         cnf.Realm,
		clientID:      cnf.ClientID,
		clientSecret:  cnf.ClientSecret,
		redirectURI:   cnf.RedirectURI,

		cl: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) endpoint(name string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/%s", c.authServerURL, c.realm, name)
}

// AuthCodeURL 組出導向 Keycloak 登入頁的網址。
// 綁定流程靠 session 的 pendingBind 關聯，state 只擋 CSRF。
func (c *Client) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "openid profile email")
	q.Set("state", state)

	return c.endpoint("auth") + "?" + q.Encode()
}

// Exchange 用授權碼換取 token
func (c *Client) Exchange(ctx context.Context, code string) (tokens Tokens, err error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("token"), strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return
	}

	err = json.Unmarshal(body, &tokens)
	return
}

// UserInfo 取得使用者資訊
func (c *Client) UserInfo(ctx context.Context, accessToken string) (info UserInfo, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("userinfo"), nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.do(req)
	if err != nil {
		return
	}

	err = json.Unmarshal(body, &info)
	return
}

// DecodeIdentity 解出 access token 內的 sub、帳號與角色。
// token 剛從 token endpoint 透過 TLS 拿到，這裡只解碼不驗簽。
func DecodeIdentity(accessToken string) (Identity, error) {
	claims := &accessTokenClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(accessToken, claims)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to decode access token: %w", err)
	}

	return Identity{
		KcUserID: claims.Subject,
		Username: claims.PreferredUsername,
		Role:     database.ResolveRole(claims.RealmAccess.Roles),
	}, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.cl.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("keycloak request %s failed with code %d: %s", req.URL.Path, resp.StatusCode, body)
	}

	return body, nil
}

func Inject(key string, cl *Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, cl)
	}
}
