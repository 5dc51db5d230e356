package richmenu

import (
	"os"
	"sync"

	"line-bind-bot/internal/database"
	"line-bind-bot/internal/logger"

	"github.com/goccy/go-yaml"
)

var lock = &sync.RWMutex{}
var menus *Menus

// InitMenus 載入選單設定，檔案不存在時使用內建預設值
func InitMenus(path string) *Menus {
	if menus == nil {
		lock.Lock()
		defer lock.Unlock()
		if menus == nil {
			var err error
			menus, err = loadMenus(path)
			if err != nil {
				logger.Crit(err)
			}
		} else {
			logger.Warning("Menus already created")
		}
	} else {
		logger.Warning("Menus already created")
	}
	return menus
}

// UpdateMenus 重新載入設定。richMenuId 對照表不變，只影響顯示欄位。
// webhook goroutine 可能同時在讀，改寫時持寫鎖。
func (_ *Menus) UpdateMenus(path string) error {
	newMenus, err := loadMenus(path)
	if err != nil {
		return err
	}

	lock.Lock()
	*menus = *newMenus
	lock.Unlock()

	return nil
}

// Get 讀取角色的選單定義
func (menus *Menus) Get(role string) (*Menu, bool) {
	lock.RLock()
	defer lock.RUnlock()

	m, ok := menus.Menu[role]
	return m, ok
}

func loadMenus(path string) (*Menus, error) {
	if path == "" {
		m := defaultMenus()
		return m, m.checkMenus()
	}

	input, err := os.ReadFile(path)
	if err != nil {
		logger.Info("選單設定檔不存在，使用內建選單:", path)
		m := defaultMenus()
		return m, m.checkMenus()
	}

	m := &Menus{}
	if err := yaml.Unmarshal(input, m); err != nil {
		return nil, err
	}

	// 補上設定檔沒寫的角色
	defaults := defaultMenus()
	if m.Menu == nil {
		m.Menu = make(map[string]*Menu)
	}
	for role, d := range defaults.Menu {
		if _, ok := m.Menu[role]; !ok {
			m.Menu[role] = d
		}
	}

	return m, m.checkMenus()
}

func defaultMenus() *Menus {
	full := Bounds{X: 0, Y: 0, Width: 2500, Height: 1686}
	left := Bounds{X: 0, Y: 0, Width: 1250, Height: 1686}
	right := Bounds{X: 1250, Y: 0, Width: 1250, Height: 1686}

	return &Menus{
		Menu: map[string]*Menu{
			ROLE_NOT_BINDING: {
				Name:        "notBindingMenu",
				ImageFile:   "start.png",
				ChatBarText: "請開始綁定",
				Areas: []*Area{
					{Bounds: full, Text: "綁定帳號"},
				},
			},
			database.ROLE_USER1: {
				Name:        "user1Menu",
				ImageFile:   "user1.png",
				ChatBarText: "主選單",
				Areas: []*Area{
					{Bounds: left, Text: "查詢人物"},
					{Bounds: right, Text: "查詢星球"},
				},
			},
			database.ROLE_USER2: {
				Name:        "user2Menu",
				ImageFile:   "user2.png",
				ChatBarText: "主選單",
				Areas: []*Area{
					{Bounds: left, Text: "查詢星球"},
					{Bounds: right, Text: "查詢星艦"},
				},
			},
			database.ROLE_ADMIN: {
				Name:        "adminMenu",
				ImageFile:   "admin.png",
				ChatBarText: "管理選單",
				Areas: []*Area{
					{Bounds: Bounds{X: 0, Y: 0, Width: 833, Height: 1686}, Text: "查詢人物"},
					{Bounds: Bounds{X: 833, Y: 0, Width: 834, Height: 1686}, Text: "查詢星球"},
					{Bounds: Bounds{X: 1667, Y: 0, Width: 833, Height: 1686}, Text: "查詢星艦"},
				},
			},
		},
	}
}
