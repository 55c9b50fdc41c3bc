// Package chattest provides an in-memory chat.Repository for tests.
package chattest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/chatdesk/pkg/entities"
	"github.com/chatdesk/pkg/utils"
	"gorm.io/gorm"
)

// Memory mirrors the Postgres repository, including the (user_id, phone)
// and provider_message_id uniqueness.
type Memory struct {
	mu       sync.Mutex
	Chats    []entities.Chat
	Msgs     []entities.Message
	nextChat uint
	nextMsg  uint

	// FailSummary makes TouchSummary return an error.
	FailSummary bool
	// FailInsert makes InsertMessage return an error.
	FailInsert bool
}

func NewMemory() *Memory {
	return &Memory{}
}

// Seed stores a chat as-is, bypassing normalisation.
func (m *Memory) Seed(chat entities.Chat) entities.Chat {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextChat++
	chat.ID = m.nextChat
	m.Chats = append(m.Chats, chat)
	return chat
}

func (m *Memory) Chat(id uint) (entities.Chat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Chats {
		if c.ID == id {
			return c, true
		}
	}
	return entities.Chat{}, false
}

func (m *Memory) MessagesOf(chatID uint) []entities.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Message
	for _, msg := range m.Msgs {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

func (m *Memory) FindByPhones(_ context.Context, userID uint, phones []string) (entities.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Chats {
		if c.UserID != userID {
			continue
		}
		for _, p := range phones {
			if c.Phone == p {
				return c, nil
			}
		}
	}
	return entities.Chat{}, gorm.ErrRecordNotFound
}

func (m *Memory) CreateIfAbsent(_ context.Context, chat *entities.Chat) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Chats {
		if c.UserID == chat.UserID && c.Phone == chat.Phone {
			return false, nil
		}
	}
	m.nextChat++
	chat.ID = m.nextChat
	chat.CreatedAt = time.Now()
	m.Chats = append(m.Chats, *chat)
	return true, nil
}

func (m *Memory) FindByID(_ context.Context, userID, chatID uint) (entities.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Chats {
		if c.ID == chatID && c.UserID == userID {
			return c, nil
		}
	}
	return entities.Chat{}, gorm.ErrRecordNotFound
}

func (m *Memory) ListByUser(_ context.Context, userID uint, page int) ([]entities.Chat, utils.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Chat
	for _, c := range m.Chats {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessageAt, out[j].LastMessageAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out, utils.Page{Number: page, TotalPages: 1, TotalItems: int64(len(out))}, nil
}

func (m *Memory) ResetUnread(_ context.Context, userID, chatID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.Chats {
		if c.ID == chatID && c.UserID == userID {
			m.Chats[i].UnreadCount = 0
			return 1, nil
		}
	}
	return 0, nil
}

func (m *Memory) InsertMessage(_ context.Context, msg *entities.Message) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailInsert {
		return false, errors.New("insert failed")
	}
	if msg.ProviderMessageID != nil {
		for _, existing := range m.Msgs {
			if existing.ProviderMessageID != nil && *existing.ProviderMessageID == *msg.ProviderMessageID {
				return false, nil
			}
		}
	}
	m.nextMsg++
	msg.ID = m.nextMsg
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.Msgs = append(m.Msgs, *msg)
	return true, nil
}

func (m *Memory) ListMessages(_ context.Context, chatID, beforeID uint, limit int) ([]entities.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Message
	for i := len(m.Msgs) - 1; i >= 0 && len(out) < limit; i-- {
		msg := m.Msgs[i]
		if msg.ChatID != chatID || (beforeID > 0 && msg.ID >= beforeID) {
			continue
		}
		out = append(out, msg)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m *Memory) TouchSummary(_ context.Context, chatID uint, text string, at time.Time, incrementUnread bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSummary {
		return errors.New("summary update failed")
	}
	for i, c := range m.Chats {
		if c.ID == chatID {
			t := at
			m.Chats[i].LastMessage = text
			m.Chats[i].LastMessageAt = &t
			if incrementUnread {
				m.Chats[i].UnreadCount++
			}
			return nil
		}
	}
	return nil
}

func (m *Memory) UpdateStatusByProviderID(_ context.Context, providerMessageID, status string, from []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i, msg := range m.Msgs {
		if msg.ProviderMessageID == nil || *msg.ProviderMessageID != providerMessageID {
			continue
		}
		for _, f := range from {
			if msg.Status == f {
				m.Msgs[i].Status = status
				n++
				break
			}
		}
	}
	return n, nil
}
