package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"line-bind-bot/internal/logger"
)

// ErrConflict kcUserId 已綁定在別的 LINE 帳號上
var ErrConflict = errors.New("binding conflicts with an existing record")

// GetBinding 查詢綁定紀錄，查無資料時回傳 (nil, nil)
func (s *Store) GetBinding(ctx context.Context, lineUserID string) (*Binding, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, lineUserId, kcUserId, username, role, created_at
		   FROM user_bindings WHERE lineUserId = ?`, lineUserID)

	b := &Binding{}
	var createdAt string
	err := row.Scan(&b.ID, &b.LineUserID, &b.KcUserID, &b.Username, &b.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read binding: %w", err)
	}

	// CURRENT_TIMESTAMP 以文字存放
	parsed, perr := time.Parse("2006-01-02 15:04:05", createdAt)
	if perr != nil {
		logger.Warning("無法解析 created_at:", createdAt, perr)
	}
	b.CreatedAt = parsed

	return b, nil
}

// UpsertBinding 新增或更新綁定，以 lineUserId 為鍵。
// kcUserId 撞到其他紀錄的 UNIQUE 約束時回傳 ErrConflict。
func (s *Store) UpsertBinding(ctx context.Context, lineUserID, kcUserID, username, role string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_bindings (lineUserId, kcUserId, username, role)
		   VALUES (?, ?, ?, ?)
		   ON CONFLICT(lineUserId) DO UPDATE SET
			 kcUserId = excluded.kcUserId,
			 username = excluded.username,
			 role = excluded.role`,
		lineUserID, kcUserID, username, role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrConflict, kcUserID)
		}
		return fmt.Errorf("failed to upsert binding: %w", err)
	}

	return nil
}
