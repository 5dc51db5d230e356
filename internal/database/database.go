package database

import (
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_bindings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	lineUserId TEXT UNIQUE,
	kcUserId TEXT UNIQUE,
	username TEXT,
	role TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

type Store struct {
	db *sql.DB
}

// Connect 開啟綁定資料庫並建立 schema
func Connect(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite 只支援單一 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func Inject(key string, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, store)
	}
}
