package database

import (
	"slices"
	"time"
)

const (
	ROLE_ADMIN = "admin"
	ROLE_USER1 = "user1"
	ROLE_USER2 = "user2"
	// 無法辨識角色時的後備值
	ROLE_GUEST = "guest"
)

// ValidRoles Keycloak realm 角色中可以對應選單的角色
var ValidRoles = []string{ROLE_ADMIN, ROLE_USER1, ROLE_USER2}

// ResolveRole 從 claims 的角色清單取出第一個認得的角色，沒有則回傳 guest
func ResolveRole(roles []string) string {
	for _, r := range roles {
		if slices.Contains(ValidRoles, r) {
			return r
		}
	}
	return ROLE_GUEST
}

type (
	// Binding LINE 使用者與 Keycloak 帳號的綁定紀錄
	Binding struct {
		ID         int64     `json:"id"`
		LineUserID string    `json:"line_user_id"`
		KcUserID   string    `json:"kc_user_id"`
		Username   string    `json:"username"`
		Role       string    `json:"role"`
		CreatedAt  time.Time `json:"created_at"`
	}
)
