package directory

import (
	"time"

	"line-bind-bot/internal/config"
	"line-bind-bot/internal/logger"

	"github.com/go-ldap/ldap/v3"
)

const (
	// 等 LDAP 服務起來再連
	startupDelay = 2 * time.Second
	retryDelay   = 5 * time.Second
)

// ConnectAdmin 建立 LDAP 管理連線。失敗只記 log，重試一次後放棄，
// 不影響應用程式運作。在背景 goroutine 執行。
func ConnectAdmin(cnf config.Ldap) *ldap.Conn {
	if cnf.URL == "" {
		logger.Info("[LDAP] 未設定，跳過管理連線")
		return nil
	}

	time.Sleep(startupDelay)

	conn, err := bindAdmin(cnf)
	if err != nil {
		logger.Warning("[LDAP] Bind failed:", err)

		time.Sleep(retryDelay)
		conn, err = bindAdmin(cnf)
		if err != nil {
			logger.Warning("[LDAP] Bind retry failed:", err)
			return nil
		}
	}

	logger.Info("[LDAP] Admin bind success")
	return conn
}

func bindAdmin(cnf config.Ldap) (*ldap.Conn, error) {
	conn, err := ldap.DialURL(cnf.URL)
	if err != nil {
		return nil, err
	}

	if err := conn.Bind(cnf.AdminDN, cnf.AdminPW); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}
