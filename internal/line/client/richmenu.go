package client

import (
	"context"
	"encoding/json"
	"net/http"

	"line-bind-bot/internal/line/requests"
	"line-bind-bot/internal/line/response"
)

// ListRichMenus 取得頻道上所有 rich menu
func (c *Client) ListRichMenus(ctx context.Context) (menus []response.RichMenu, err error) {
	r, err := c.Invoke(ctx, http.MethodGet, "/v2/bot/richmenu/list", nil, "application/json", nil)
	if err != nil {
		return
	}

	var content response.RichMenuList
	err = json.Unmarshal(r, &content)
	return content.RichMenus, err
}

// CreateRichMenu 建立 rich menu，回傳 richMenuId
func (c *Client) CreateRichMenu(ctx context.Context, menu requests.RichMenuRequest) (id string, err error) {
	jsonData, err := json.Marshal(menu)
	if err != nil {
		return
	}

	r, err := c.Invoke(ctx, http.MethodPost, "/v2/bot/richmenu", nil, "application/json", jsonData)
	if err != nil {
		return
	}

	var content response.CreatedRichMenu
	err = json.Unmarshal(r, &content)
	return content.RichMenuID, err
}

// UploadRichMenuImage 上傳選單底圖，走 api-data 主機
func (c *Client) UploadRichMenuImage(ctx context.Context, richMenuID string, image []byte, contentType string) error {
	_, err := c.InvokeData(ctx, http.MethodPost, "/v2/bot/richmenu/"+richMenuID+"/content", contentType, image)
	return err
}

// BindRichMenuToUser 把 rich menu 綁定到個別使用者
func (c *Client) BindRichMenuToUser(ctx context.Context, userID, richMenuID string) error {
	_, err := c.Invoke(ctx, http.MethodPost, "/v2/bot/user/"+userID+"/richmenu/"+richMenuID, nil, "", nil)
	return err
}

// SetDefaultRichMenu 設定帳號層級的預設選單
func (c *Client) SetDefaultRichMenu(ctx context.Context, richMenuID string) error {
	_, err := c.Invoke(ctx, http.MethodPost, "/v2/bot/user/all/richmenu/"+richMenuID, nil, "", nil)
	return err
}

// DeleteRichMenu 刪除 rich menu，一般流程用不到，清理舊選單時用
func (c *Client) DeleteRichMenu(ctx context.Context, richMenuID string) error {
	_, err := c.Invoke(ctx, http.MethodDelete, "/v2/bot/richmenu/"+richMenuID, nil, "", nil)
	return err
}
