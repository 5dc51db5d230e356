package bot

import (
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"

	"line-bind-bot/internal/logger"

	"github.com/allegro/bigcache/v3"
)

// 對話狀態
const (
	STATE_IDLE            = ""
	STATE_AWAIT_PEOPLE    = "awaiting_people_id"
	STATE_AWAIT_PLANETS   = "awaiting_planets_id"
	STATE_AWAIT_STARSHIPS = "awaiting_starships_id"
)

type (
	// Chat 單一使用者的對話狀態
	Chat struct {
		// 前一個狀態
		PreviousState string `json:"prev_state"`
		// 目前狀態，空字串表示 idle
		CurrentState string `json:"curr_state"`
	}
)

func getState(cache *bigcache.BigCache, userID string) Chat {
	var chatState Chat

	b, err := cache.Get(userID)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			logger.Debug("No state in cache for " + userID)
			return Chat{}
		}
		logger.Warning("Error while read state from cache", err)
		return Chat{}
	}

	if err := json.Unmarshal(b, &chatState); err != nil {
		logger.Warning("Error while decoding state", err)
	}

	return chatState
}

func (chatState *Chat) ChangeState(cache *bigcache.BigCache, userID, toState string) error {
	if chatState.CurrentState == toState {
		return nil
	}

	chatState.PreviousState = chatState.CurrentState
	chatState.CurrentState = toState

	data, err := json.Marshal(chatState)
	if err != nil {
		logger.Warning("Error while change state to cache", err)
		return err
	}

	err = cache.Set(userID, data)
	if err != nil {
		logger.Warning("Error while write state to cache", err)
	}

	return nil
}

// gin 在多個 goroutine 上處理 webhook，同一位使用者的事件
// 必須依序套用到對話狀態。鎖以 userID 雜湊分段，數量固定，
// 不會隨見過的使用者無限成長。
var userLocks [64]sync.Mutex

func lockUser(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))

	mu := &userLocks[h.Sum32()%uint32(len(userLocks))]
	mu.Lock()
	return mu
}
