package keycloak

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"line-bind-bot/internal/config"
	"line-bind-bot/internal/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestAuthCodeURL(t *testing.T) {
	cl := New(config.Keycloak{
		AuthServerURL: "https://kc.example.test",
		Realm:         "demo",
		ClientID:      "line-bot",
		RedirectURI:   "https://bot.example.test/app/callback",
	})

	u, err := url.Parse(cl.AuthCodeURL("nonce-1"))
	require.NoError(t, err)

	assert.Equal(t, "/realms/demo/protocol/openid-connect/auth", u.Path)
	q := u.Query()
	assert.Equal(t, "line-bot", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, "https://bot.example.test/app/callback", q.Get("redirect_uri"))
	assert.Equal(t, "nonce-1", q.Get("state"))
}

func TestDecodeIdentity(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub":                "kc-123",
		"preferred_username": "alice",
		"realm_access": map[string]interface{}{
			"roles": []string{"offline_access", "user2", "admin"},
		},
	})

	identity, err := DecodeIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "kc-123", identity.KcUserID)
	assert.Equal(t, "alice", identity.Username)
	// claims 陣列順序決定角色
	assert.Equal(t, database.ROLE_USER2, identity.Role)
}

func TestDecodeIdentityGuestFallback(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub":                "kc-456",
		"preferred_username": "bob",
		"realm_access": map[string]interface{}{
			"roles": []string{"offline_access"},
		},
	})

	identity, err := DecodeIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, database.ROLE_GUEST, identity.Role)
}

func TestDecodeIdentityGarbage(t *testing.T) {
	_, err := DecodeIdentity("not-a-jwt")
	assert.Error(t, err)
}

func TestExchangeAndUserInfo(t *testing.T) {
	accessToken := signedToken(t, jwt.MapClaims{"sub": "kc-123", "preferred_username": "alice"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/realms/demo/protocol/openid-connect/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
			assert.Equal(t, "the-code", r.PostForm.Get("code"))
			assert.Equal(t, "line-bot", r.PostForm.Get("client_id"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"` + accessToken + `","token_type":"Bearer","expires_in":300}`))
		case "/realms/demo/protocol/openid-connect/userinfo":
			assert.Equal(t, "Bearer "+accessToken, r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"sub":"kc-123","preferred_username":"alice"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cl := New(config.Keycloak{
		AuthServerURL: srv.URL,
		Realm:         "demo",
		ClientID:      "line-bot",
		ClientSecret:  "secret",
		RedirectURI:   "https://bot.example.test/app/callback",
	})

	tokens, err := cl.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, accessToken, tokens.AccessToken)

	info, err := cl.UserInfo(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "kc-123", info.Sub)
	assert.Equal(t, "alice", info.PreferredUsername)
}

func TestExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	cl := New(config.Keycloak{AuthServerURL: srv.URL, Realm: "demo"})

	_, err := cl.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}
