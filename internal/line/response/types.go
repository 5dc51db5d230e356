package response

type (
	// RichMenu list API 回傳的選單摘要
	RichMenu struct {
		RichMenuID  string `json:"richMenuId"`
		Name        string `json:"name"`
		ChatBarText string `json:"chatBarText"`
		Selected    bool   `json:"selected"`
	}

	RichMenuList struct {
		RichMenus []RichMenu `json:"richmenus"`
	}

	CreatedRichMenu struct {
		RichMenuID string `json:"richMenuId"`
	}

	// Profile LINE 使用者公開資料
	Profile struct {
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
		PictureURL  string `json:"pictureUrl"`
	}

	// TokenVerify oauth2 verify API 回傳
	TokenVerify struct {
		Scope     string `json:"scope"`
		ClientID  string `json:"client_id"`
		ExpiresIn int    `json:"expires_in"`
		IDToken   string `json:"id_token,omitempty"`
	}
)

// webhook 事件。簽章驗證由外層 middleware 處理，這裡只關心內容
type (
	WebhookBody struct {
		Destination string  `json:"destination"`
		Events      []Event `json:"events"`
	}

	Event struct {
		Type       string        `json:"type"`
		ReplyToken string        `json:"replyToken"`
		Source     EventSource   `json:"source"`
		Message    *EventMessage `json:"message,omitempty"`
	}

	EventSource struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}

	EventMessage struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Text string `json:"text"`
	}
)

const (
	EVENT_FOLLOW  = "follow"
	EVENT_MESSAGE = "message"

	MESSAGE_TEXT = "text"
)
