package bot

import (
	"line-bind-bot/internal/line/requests"
	"line-bind-bot/internal/swapi"
)

// 使用者可見文字
const (
	MSG_NOT_BOUND_FOLLOW  = "您尚未綁定帳號，請點下方按鈕進行綁定。"
	MSG_NOT_BOUND_MESSAGE = "請先綁定帳號才能使用其他功能。"
	MSG_NUMERIC_ONLY      = "請輸入純數字 ID。\n若需更換查詢項目，請按下方選單。"
	MSG_UNRECOGNIZED      = "無法辨識您的需求。\n請點擊下方選單使用功能。"
)

// 選單指令 → 等待輸入狀態
var commandStates = map[string]string{
	"查詢人物": STATE_AWAIT_PEOPLE,
	"查詢星球": STATE_AWAIT_PLANETS,
	"查詢星艦": STATE_AWAIT_STARSHIPS,
}

// 等待輸入狀態 → 提示文字
var statePrompts = map[string]string{
	STATE_AWAIT_PEOPLE:    "請輸入人物 ID（純數字）。",
	STATE_AWAIT_PLANETS:   "請輸入星球 ID（純數字）。",
	STATE_AWAIT_STARSHIPS: "請輸入星艦 ID（純數字）。",
}

// 等待輸入狀態 → 查詢資源
var stateResources = map[string]string{
	STATE_AWAIT_PEOPLE:    swapi.RESOURCE_PEOPLE,
	STATE_AWAIT_PLANETS:   swapi.RESOURCE_PLANETS,
	STATE_AWAIT_STARSHIPS: swapi.RESOURCE_STARSHIPS,
}

// buildBindTemplate 未綁定使用者看到的按鈕樣板，直接連到 start-bind
func buildBindTemplate(host, basePath, lineUserID string) requests.TemplateMessage {
	return requests.TemplateMessage{
		Type:    "template",
		AltText: "綁定Keycloak",
		Template: requests.ButtonsTemplate{
			Type: "buttons",
			Text: "綁定Keycloak",
			Actions: []requests.Action{
				{
					Type:  "uri",
					Label: "🔗 綁定 Keycloak",
					URI:   host + basePath + "/start-bind?lineUserId=" + lineUserID,
				},
			},
		},
	}
}
