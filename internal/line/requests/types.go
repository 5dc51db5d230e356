package requests

type (
	// ReplyRequest 回覆訊息 (一次性 replyToken)
	ReplyRequest struct {
		ReplyToken string        `json:"replyToken"`
		Messages   []interface{} `json:"messages"`
	}

	// PushRequest 主動推播訊息
	PushRequest struct {
		To       string        `json:"to"`
		Messages []interface{} `json:"messages"`
	}

	TextMessage struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}

	TemplateMessage struct {
		Type     string          `json:"type"`
		AltText  string          `json:"altText"`
		Template ButtonsTemplate `json:"template"`
	}

	ButtonsTemplate struct {
		Type    string   `json:"type"`
		Text    string   `json:"text"`
		Actions []Action `json:"actions"`
	}

	// Action rich menu 區域或按鈕觸發的動作
	Action struct {
		Type  string `json:"type"`
		Label string `json:"label,omitempty"`
		URI   string `json:"uri,omitempty"`
		Text  string `json:"text,omitempty"`
	}

	// RichMenuRequest 建立 rich menu 的版面描述
	RichMenuRequest struct {
		Size        RichMenuSize   `json:"size"`
		Selected    bool           `json:"selected"`
		Name        string         `json:"name"`
		ChatBarText string         `json:"chatBarText"`
		Areas       []RichMenuArea `json:"areas"`
	}

	RichMenuSize struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}

	RichMenuArea struct {
		Bounds RichMenuBounds `json:"bounds"`
		Action Action         `json:"action"`
	}

	RichMenuBounds struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	}
)

func NewTextMessage(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}
