package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"line-bind-bot/internal/line/requests"
	"line-bind-bot/internal/line/response"
)

// Reply 用 replyToken 回覆訊息
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...interface{}) error {
	data := requests.ReplyRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = c.Invoke(ctx, http.MethodPost, "/v2/bot/message/reply", nil, "application/json", jsonData)

	return err
}

// Push 主動推播訊息給使用者
func (c *Client) Push(ctx context.Context, to string, messages ...interface{}) error {
	data := requests.PushRequest{
		To:       to,
		Messages: messages,
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = c.Invoke(ctx, http.MethodPost, "/v2/bot/message/push", nil, "application/json", jsonData)

	return err
}

// VerifyAccessToken 驗證 LIFF 前端送來的 access token
func (c *Client) VerifyAccessToken(ctx context.Context, accessToken string) (content response.TokenVerify, err error) {
	var v = url.Values{}
	v.Add("access_token", accessToken)

	r, err := c.Invoke(ctx, http.MethodGet, "/oauth2/v2.1/verify", v, "", nil)
	if err != nil {
		return
	}

	err = json.Unmarshal(r, &content)
	return
}

// GetProfile 以使用者的 access token 取得公開資料
func (c *Client) GetProfile(ctx context.Context, accessToken string) (content response.Profile, err error) {
	r, err := c.invokeWithToken(ctx, http.MethodGet, c.apiAddr+"/v2/profile", accessToken)
	if err != nil {
		return
	}

	err = json.Unmarshal(r, &content)
	return
}
