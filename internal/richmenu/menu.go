package richmenu

import (
	"fmt"
	"slices"

	"line-bind-bot/internal/database"
	"line-bind-bot/internal/line/requests"
)

// 未綁定使用者專用的選單角色
const ROLE_NOT_BINDING = "notBinding"

// RoleKeys 啟動時解析選單的順序
var RoleKeys = []string{ROLE_NOT_BINDING, database.ROLE_USER1, database.ROLE_USER2, database.ROLE_ADMIN}

type (
	Menus struct {
		Menu map[string]*Menu `yaml:"menus"`
	}

	// Menu 單一角色的 rich menu 定義
	Menu struct {
		// LINE 上顯示的選單名稱，啟動時用來比對既有選單
		Name string `yaml:"name"`
		// 底圖檔名，相對於 images 資料夾
		ImageFile string `yaml:"image_file"`
		// 聊天列文字
		ChatBarText string `yaml:"chat_bar_text"`

		Areas []*Area `yaml:"areas"`
	}

	Area struct {
		Bounds Bounds `yaml:"bounds"`
		// 點擊後送出的文字指令
		Text string `yaml:"text"`
	}

	Bounds struct {
		X      int `yaml:"x"`
		Y      int `yaml:"y"`
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	}
)

// Request 組出建立選單用的 API 請求
func (m *Menu) Request() requests.RichMenuRequest {
	req := requests.RichMenuRequest{
		Size:        requests.RichMenuSize{Width: 2500, Height: 1686},
		Selected:    true,
		Name:        m.Name,
		ChatBarText: m.ChatBarText,
	}
	for _, a := range m.Areas {
		req.Areas = append(req.Areas, requests.RichMenuArea{
			Bounds: requests.RichMenuBounds{
				X: a.Bounds.X, Y: a.Bounds.Y,
				Width: a.Bounds.Width, Height: a.Bounds.Height,
			},
			Action: requests.Action{Type: "message", Text: a.Text},
		})
	}
	return req
}

func (menus *Menus) checkMenus() error {
	names := make(map[string]bool)

	for _, role := range RoleKeys {
		m, ok := menus.Menu[role]
		if !ok {
			return fmt.Errorf("缺少角色 %s 的選單定義", role)
		}
		if m.Name == "" {
			return fmt.Errorf("角色 %s 的選單缺少 name", role)
		}
		if names[m.Name] {
			return fmt.Errorf("選單名稱重複: %s", m.Name)
		}
		names[m.Name] = true
		if m.ImageFile == "" {
			return fmt.Errorf("角色 %s 的選單缺少 image_file", role)
		}
		if len(m.Areas) == 0 {
			return fmt.Errorf("角色 %s 的選單沒有任何區域", role)
		}
	}

	for role := range menus.Menu {
		if !slices.Contains(RoleKeys, role) {
			return fmt.Errorf("未知的選單角色: %s", role)
		}
	}

	return nil
}
