package richmenu

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"line-bind-bot/internal/line/requests"
	"line-bind-bot/internal/line/response"
	"line-bind-bot/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrNotProvisioned 角色選單尚未解析就要求套用，屬啟動順序錯誤
var ErrNotProvisioned = errors.New("rich menu not provisioned for role")

// MenuAPI Menu Registry 依賴的外部選單操作
type MenuAPI interface {
	ListRichMenus(ctx context.Context) ([]response.RichMenu, error)
	CreateRichMenu(ctx context.Context, menu requests.RichMenuRequest) (string, error)
	UploadRichMenuImage(ctx context.Context, richMenuID string, image []byte, contentType string) error
	BindRichMenuToUser(ctx context.Context, userID, richMenuID string) error
	SetDefaultRichMenu(ctx context.Context, richMenuID string) error
}

// Registry 維護角色對 richMenuId 的對照表。
// ResolveAll 必須在接收流量前跑完，之後對照表唯讀。
type Registry struct {
	api       MenuAPI
	menus     *Menus
	imagesDir string

	// 建立選單後等 LINE 同步完成再上傳圖片，不然會 404
	propagationDelay time.Duration

	ids map[string]string
}

func NewRegistry(api MenuAPI, menus *Menus, imagesDir string) *Registry {
	return &Registry{
		api:       api,
		menus:     menus,
		imagesDir: imagesDir,

		propagationDelay: 3 * time.Second,

		ids: make(map[string]string),
	}
}

// ResolveAll 依序解析所有角色的選單：名稱吻合就重用，否則建立並上傳底圖。
// 最後把 notBinding 選單設為帳號預設。
func (reg *Registry) ResolveAll(ctx context.Context) error {
	logger.Info("===== Rich Menu Setup Start =====")

	existing, err := reg.findExistingRichMenus(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rich menus: %w", err)
	}

	for _, role := range RoleKeys {
		cfg, ok := reg.menus.Get(role)
		if !ok {
			continue
		}

		if existingID, ok := existing[cfg.Name]; ok {
			logger.Info("重用已存在的 Rich Menu:", cfg.Name)
			reg.ids[role] = existingID
			continue
		}

		logger.Info("建立 Rich Menu:", cfg.Name)
		newID, err := reg.api.CreateRichMenu(ctx, cfg.Request())
		if err != nil {
			return fmt.Errorf("failed to create rich menu %s: %w", cfg.Name, err)
		}

		image, contentType, err := reg.readImage(cfg.ImageFile)
		if err != nil {
			return err
		}

		time.Sleep(reg.propagationDelay)
		if err := reg.api.UploadRichMenuImage(ctx, newID, image, contentType); err != nil {
			return fmt.Errorf("failed to upload image for %s: %w", cfg.Name, err)
		}

		reg.ids[role] = newID
		logger.Info("已建立 Rich Menu:", role, "->", newID)
	}

	if err := reg.api.SetDefaultRichMenu(ctx, reg.ids[ROLE_NOT_BINDING]); err != nil {
		return fmt.Errorf("failed to set default rich menu: %w", err)
	}
	logger.Info("已設定 notBindingMenu 為預設選單")
	logger.Info("===== Rich Menu Setup Finished =====")

	return nil
}

// Assign 依角色替使用者套用選單。認不得的角色一律回到 notBinding。
func (reg *Registry) Assign(ctx context.Context, userID, role string) error {
	if _, ok := reg.menus.Get(role); !ok {
		role = ROLE_NOT_BINDING
	}

	id, ok := reg.ids[role]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotProvisioned, role)
	}

	if err := reg.api.BindRichMenuToUser(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to bind rich menu to user %s: %w", userID, err)
	}

	logger.Debug("已替使用者套用 Rich Menu:", userID, role)
	return nil
}

// Handles 回傳對照表副本
func (reg *Registry) Handles() map[string]string {
	cp := make(map[string]string, len(reg.ids))
	for k, v := range reg.ids {
		cp[k] = v
	}
	return cp
}

func (reg *Registry) findExistingRichMenus(ctx context.Context) (map[string]string, error) {
	existing, err := reg.api.ListRichMenus(ctx)
	if err != nil {
		return nil, err
	}

	m := make(map[string]string)
	for _, menu := range existing {
		if menu.Name != "" {
			m[menu.Name] = menu.RichMenuID
		}
	}
	return m, nil
}

func (reg *Registry) readImage(imageFile string) ([]byte, string, error) {
	path := filepath.Join(reg.imagesDir, imageFile)
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("image not found: %s", path)
	}

	contentType := "image/png"
	if ext := strings.ToLower(filepath.Ext(imageFile)); ext == ".jpg" || ext == ".jpeg" {
		contentType = "image/jpeg"
	}
	return image, contentType, nil
}

func Inject(key string, reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, reg)
	}
}
