package bot

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"line-bind-bot/internal/config"
	"line-bind-bot/internal/database"
	"line-bind-bot/internal/line/requests"
	"line-bind-bot/internal/line/response"
	"line-bind-bot/internal/logger"

	"github.com/allegro/bigcache/v3"
	"github.com/gin-gonic/gin"
)

// bot 只依賴外部協作者的這幾個操作，方便測試替身
type (
	Messenger interface {
		Reply(ctx context.Context, replyToken string, messages ...interface{}) error
	}

	MenuAssigner interface {
		Assign(ctx context.Context, userID, role string) error
	}

	BindingStore interface {
		GetBinding(ctx context.Context, lineUserID string) (*database.Binding, error)
	}

	LookupAPI interface {
		Query(ctx context.Context, resource, id string) string
	}
)

var numericID = regexp.MustCompile(`^\d+$`)

// InitHooks 掛上 webhook 接收端點
func InitHooks(app *gin.Engine, cnf *config.Conf) {
	logger.Info("Init receiving endpoint...")
	app.POST(cnf.Server.WebhookPath, ValidateSignature(cnf.Line.ChannelSecret), Receive)
}

// Receive LINE webhook。簽章由前置的 ValidateSignature 驗過，
// 這裡先回 200 再於背景處理事件。
func Receive(c *gin.Context) {
	var body response.WebhookBody
	if err := c.BindJSON(&body); err != nil {
		logger.Warning("Error while receive webhook", err)

		c.Status(http.StatusBadRequest)
		return
	}

	logger.Debug("Receive events:", body)

	cCp := c.Copy()
	for _, events := range groupByUser(body.Events) {
		go func(events []response.Event) {
			for _, event := range events {
				if err := handleEvent(cCp, event); err != nil {
					logger.Warning("Error handleEvent", err)
				}
			}
		}(events)
	}

	c.Status(http.StatusOK)
}

// groupByUser 同一位使用者在同一個 webhook body 裡的事件
// 要交給同一個 goroutine 依到達順序處理
func groupByUser(events []response.Event) map[string][]response.Event {
	grouped := make(map[string][]response.Event)
	for _, event := range events {
		grouped[event.Source.UserID] = append(grouped[event.Source.UserID], event)
	}
	return grouped
}

func handleEvent(c *gin.Context, event response.Event) error {
	userID := event.Source.UserID
	if userID == "" {
		return nil
	}

	// 同一位使用者的事件依到達順序處理
	mu := lockUser(userID)
	defer mu.Unlock()

	cnf := c.MustGet("cnf").(*config.Conf)
	store := c.MustGet("store").(BindingStore)
	line := c.MustGet("line").(Messenger)
	menus := c.MustGet("menus").(MenuAssigner)

	// webhook 已回 200，事件處理不掛在請求的 context 上
	ctx := context.Background()

	binding, err := store.GetBinding(ctx, userID)
	if err != nil {
		logger.Warning("Error while read binding", err)
		return err
	}

	// 未綁定 → 不進入指令處理，一律回覆綁定邀請
	if binding == nil {
		switch event.Type {
		case response.EVENT_FOLLOW:
			return line.Reply(ctx, event.ReplyToken,
				requests.NewTextMessage(MSG_NOT_BOUND_FOLLOW),
				buildBindTemplate(cnf.Server.Host, cnf.Server.BasePath, userID),
			)
		case response.EVENT_MESSAGE:
			return line.Reply(ctx, event.ReplyToken,
				requests.NewTextMessage(MSG_NOT_BOUND_MESSAGE),
				buildBindTemplate(cnf.Server.Host, cnf.Server.BasePath, userID),
			)
		}
		return nil
	}

	// 已綁定 → 每次互動都重新套用角色選單，外部改過選單也會收斂
	if err := menus.Assign(ctx, userID, binding.Role); err != nil {
		logger.Warning("Error while assign rich menu", err)
	}

	if event.Type == response.EVENT_MESSAGE && event.Message != nil && event.Message.Type == response.MESSAGE_TEXT {
		return processMessage(c, ctx, event, userID)
	}

	return nil
}

func processMessage(c *gin.Context, ctx context.Context, event response.Event, userID string) error {
	cache := c.MustGet("cache").(*bigcache.BigCache)
	line := c.MustGet("line").(Messenger)
	lookup := c.MustGet("lookup").(LookupAPI)

	text := strings.TrimSpace(event.Message.Text)
	chatState := getState(cache, userID)

	// 選單指令優先於等待中的輸入
	if toState, ok := commandStates[text]; ok {
		if err := chatState.ChangeState(cache, userID, toState); err != nil {
			return err
		}
		return line.Reply(ctx, event.ReplyToken, requests.NewTextMessage(statePrompts[toState]))
	}

	// 等待數字 ID
	if chatState.CurrentState != STATE_IDLE {
		if numericID.MatchString(text) {
			resource := stateResources[chatState.CurrentState]

			if err := chatState.ChangeState(cache, userID, STATE_IDLE); err != nil {
				return err
			}

			result := lookup.Query(ctx, resource, text)
			return line.Reply(ctx, event.ReplyToken, requests.NewTextMessage(result))
		}

		return line.Reply(ctx, event.ReplyToken, requests.NewTextMessage(MSG_NUMERIC_ONLY))
	}

	// 無匹配指令
	return line.Reply(ctx, event.ReplyToken, requests.NewTextMessage(MSG_UNRECOGNIZED))
}
