package swapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"line-bind-bot/internal/config"
	"line-bind-bot/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	RESOURCE_PEOPLE    = "people"
	RESOURCE_PLANETS   = "planets"
	RESOURCE_STARSHIPS = "starships"
)

// ErrNotFound 查無該 ID 的資源
var ErrNotFound = errors.New("resource not found")

var resourceNames = map[string]string{
	RESOURCE_PEOPLE:    "角色",
	RESOURCE_PLANETS:   "星球",
	RESOURCE_STARSHIPS: "星艦",
}

type (
	// Client Star Wars API 客戶端
	Client struct {
		addr string

		cl *http.Client
	}

	// Record 三種資源共用的欄位集合
	Record struct {
		Name string `json:"name"`

		// people
		Height    string `json:"height"`
		Mass      string `json:"mass"`
		HairColor string `json:"hair_color"`
		BirthYear string `json:"birth_year"`

		// planets
		Climate    string `json:"climate"`
		Terrain    string `json:"terrain"`
		Gravity    string `json:"gravity"`
		Population string `json:"population"`

		// starships
		Model         string `json:"model"`
		Manufacturer  string `json:"manufacturer"`
		StarshipClass string `json:"starship_class"`
		Crew          string `json:"crew"`
	}
)

func New(cnf config.Lookup) *Client {
	return &Client{
		addr: strings.TrimRight(cnf.Addr, "/"),

		cl: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Get 查詢單筆資源
func (c *Client) Get(ctx context.Context, resource, id string) (record Record, err error) {
	reqUrl := fmt.Sprintf("%s/%s/%s/", c.addr, resource, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		return
	}

	resp, err := c.cl.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		err = ErrNotFound
		return
	}
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("swapi request %s failed with code %d", reqUrl, resp.StatusCode)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}

	err = json.Unmarshal(body, &record)
	return
}

// Query 查詢並組出給使用者看的文字。
// 查無資料或查詢失敗都回傳白話訊息，不把原始錯誤丟給使用者。
func (c *Client) Query(ctx context.Context, resource, id string) string {
	displayName := resourceNames[resource]
	if displayName == "" {
		displayName = resource
	}

	record, err := c.Get(ctx, resource, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Sprintf("錯誤：找不到 ID 為 %s 的 %s。", id, displayName)
		}
		logger.Warning("swapi query failed:", err)
		return "查詢 Star Wars API 時發生錯誤。"
	}

	return Format(resource, id, record)
}

// Format 依資源種類排版查詢結果
func Format(resource, id string, r Record) string {
	displayName := resourceNames[resource]
	if displayName == "" {
		displayName = resource
	}

	text := fmt.Sprintf("⭐️ Star Wars %s ID: %s ⭐️\n", displayName, id)

	switch resource {
	case RESOURCE_PEOPLE:
		text += fmt.Sprintf("姓名: %s\n", r.Name)
		text += fmt.Sprintf("身高: %s cm\n", r.Height)
		text += fmt.Sprintf("體重: %s kg\n", r.Mass)
		text += fmt.Sprintf("髮色: %s\n", r.HairColor)
		text += fmt.Sprintf("出生年份: %s", r.BirthYear)
	case RESOURCE_PLANETS:
		text += fmt.Sprintf("名稱: %s\n", r.Name)
		text += fmt.Sprintf("氣候: %s\n", r.Climate)
		text += fmt.Sprintf("地形: %s\n", r.Terrain)
		text += fmt.Sprintf("重力: %s\n", r.Gravity)
		text += fmt.Sprintf("人口: %s", r.Population)
	case RESOURCE_STARSHIPS:
		text += fmt.Sprintf("名稱: %s\n", r.Name)
		text += fmt.Sprintf("型號: %s\n", r.Model)
		text += fmt.Sprintf("製造商: %s\n", r.Manufacturer)
		text += fmt.Sprintf("星艦等級: %s\n", r.StarshipClass)
		text += fmt.Sprintf("乘員數: %s", r.Crew)
	}

	return text
}

func Inject(key string, cl *Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, cl)
	}
}
