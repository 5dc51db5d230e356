package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"line-bind-bot/internal/config"
	"line-bind-bot/internal/logger"

	"github.com/gin-gonic/gin"
)

type (
	// Client LINE Messaging API 客戶端
	Client struct {
		apiAddr     string
		dataApiAddr string
		token       string

		cl *http.Client
	}

	HttpError struct {
		Url     string
		Code    int
		Message string
	}
)

func New(cnf config.Line) *Client {
	return &Client{
		apiAddr:     cnf.ApiAddr,
		dataApiAddr: cnf.DataApiAddr,
		token:       cnf.ChannelAccessToken,

		cl: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				IdleConnTimeout:     30 * time.Second,
				DisableKeepAlives:   false,
				MaxIdleConnsPerHost: 5,
				DisableCompression:  true,
			},
		},
	}
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("Http request failed for %s with code %d and message:\n%s", e.Url, e.Code, e.Message)
}

// Invoke 呼叫 api.line.me 下的端點
func (c *Client) Invoke(ctx context.Context, method, methodUrl string, urlParams url.Values, contentType string, body []byte) (content []byte, err error) {
	return c.invoke(ctx, method, c.apiAddr+methodUrl, urlParams, contentType, body)
}

// InvokeData 呼叫 api-data.line.me 下的端點 (圖片上傳)
func (c *Client) InvokeData(ctx context.Context, method, methodUrl string, contentType string, body []byte) (content []byte, err error) {
	return c.invoke(ctx, method, c.dataApiAddr+methodUrl, nil, contentType, body)
}

func (c *Client) invoke(ctx context.Context, method, reqUrl string, urlParams url.Values, contentType string, body []byte) (content []byte, err error) {
	if urlParams != nil {
		reqUrl += "?" + urlParams.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqUrl, bytes.NewBuffer(body))
	if err != nil {
		logger.Warning("Error while create request for", reqUrl, "with method", method, ":", err)
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logger.Debug("---> request", req.Method, reqUrl)

	resp, err := c.cl.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	logger.Debug("<--- request", req.Method, reqUrl, "with body", bodyBytes)
	if err != nil {
		logger.Warning("Error while read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HttpError{
			Url:     req.URL.String(),
			Code:    resp.StatusCode,
			Message: string(bodyBytes),
		}
	}

	return bodyBytes, nil
}

// invokeWithToken 用使用者的 access token 而非 channel token 呼叫
func (c *Client) invokeWithToken(ctx context.Context, method, reqUrl, accessToken string) (content []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, method, reqUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.cl.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warning("Error while read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HttpError{
			Url:     req.URL.String(),
			Code:    resp.StatusCode,
			Message: string(bodyBytes),
		}
	}

	return bodyBytes, nil
}

func Inject(key string, cl *Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, cl)
	}
}
