package config

import (
	"github.com/gin-gonic/gin"
)

type (
	// Conf 包含應用程式所有設定
	Conf struct {
		Server Server `yaml:"server"`

		Line     Line     `yaml:"line"`
		Keycloak Keycloak `yaml:"keycloak"`
		Ldap     Ldap     `yaml:"ldap"`
		Lookup   Lookup   `yaml:"lookup"`

		Session Session `yaml:"session"`

		// 綁定資料庫檔案路徑
		DatabasePath string `yaml:"database_path"`
		// rich menu 設定檔路徑
		MenuConfig string `yaml:"menu_config"`
		// rich menu 圖片資料夾
		ImagesDir string `yaml:"images_dir"`
		// log 資料夾，空字串表示不存檔
		LogDir string `yaml:"log_dir"`

		RunInDebug bool `yaml:"-"`
	}

	Server struct {
		// 對外公開的網址，組綁定按鈕連結用
		Host   string `yaml:"host"`
		Listen string `yaml:"listen"`
		// 基底路徑，預設 /app
		BasePath string `yaml:"base_path"`
		// webhook 路徑，預設 /webhook
		WebhookPath string `yaml:"webhook_path"`
		// 靜態頁資料夾
		PublicDir string `yaml:"public_dir"`
	}

	Line struct {
		ChannelAccessToken string `yaml:"channel_access_token"`
		ChannelSecret      string `yaml:"channel_secret"`
		// Messaging API 位址
		ApiAddr string `yaml:"api_addr"`
		// 圖片上傳位址 (api-data)
		DataApiAddr string `yaml:"data_api_addr"`
	}

	Keycloak struct {
		AuthServerURL string `yaml:"auth_server_url"`
		Realm         string `yaml:"realm"`
		ClientID      string `yaml:"client_id"`
		ClientSecret  string `yaml:"client_secret"`
		RedirectURI   string `yaml:"redirect_uri"`
	}

	Ldap struct {
		URL     string `yaml:"url"`
		AdminDN string `yaml:"admin_dn"`
		AdminPW string `yaml:"admin_pw"`
	}

	Lookup struct {
		// Star Wars API 位址
		Addr string `yaml:"addr"`
	}

	Session struct {
		Secret string `yaml:"secret"`
		// cookie 存活秒數，預設 3600
		MaxAge int `yaml:"max_age"`
		Secure bool `yaml:"secure"`
	}
)

func Inject(key string, cnf *Conf) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, cnf)
	}
}
