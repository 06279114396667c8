package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arewsa/chat-for-deepruta/internal/model"
)

// DefaultTitle é o título de um chat antes da primeira mensagem
const DefaultTitle = "Новый чат"

const titleLength = 30

// ErrChatNotFound indica que não existe chat com o ID informado
var ErrChatNotFound = errors.New("chat not found")

// chatSession guarda o estado de um chat em memória
type chatSession struct {
	id        string
	title     string
	updatedAt time.Time
	messages  []model.Message
}

// ChatStore gerencia o histórico dos chats em memória
type ChatStore struct {
	sessions map[string]*chatSession
	maxChats int
	now      func() time.Time
	onEvict  func(chatID string)
	mu       sync.RWMutex
}

// NewChatStore cria um store que mantém no máximo maxChats chats.
// Com maxChats <= 0 não há limite.
func NewChatStore(maxChats int) *ChatStore {
	return &ChatStore{
		sessions: make(map[string]*chatSession),
		maxChats: maxChats,
		now:      time.Now,
	}
}

// OnEvict registra fn para ser chamada com o ID de cada chat removido pelo limite.
// fn é chamada fora do lock do store.
func (cs *ChatStore) OnEvict(fn func(chatID string)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.onEvict = fn
}

// Record adiciona uma troca (usuário e assistente) ao chat, criando o chat se necessário
func (cs *ChatStore) Record(chatID, userText, assistantText string) model.Chat {
	chat, evicted, onEvict := cs.record(chatID, userText, assistantText)
	if onEvict != nil {
		for _, id := range evicted {
			onEvict(id)
		}
	}
	return chat
}

func (cs *ChatStore) record(chatID, userText, assistantText string) (model.Chat, []string, func(string)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	sess, evicted := cs.getOrCreate(chatID)
	now := cs.now()

	sess.messages = append(sess.messages,
		model.Message{ID: uuid.NewString(), Role: model.RoleUser, Content: userText, Timestamp: now},
		model.Message{ID: uuid.NewString(), Role: model.RoleAssistant, Content: assistantText, Timestamp: now},
	)
	sess.updatedAt = now

	if sess.title == DefaultTitle {
		sess.title = Title(userText)
	}

	return sess.snapshot(), evicted, cs.onEvict
}

// Get retorna uma cópia do chat
func (cs *ChatStore) Get(chatID string) (model.Chat, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	sess, ok := cs.sessions[chatID]
	if !ok {
		return model.Chat{}, ErrChatNotFound
	}
	return sess.snapshot(), nil
}

// List retorna os chats do mais recente para o mais antigo
func (cs *ChatStore) List() []model.ChatSummary {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make([]model.ChatSummary, 0, len(cs.sessions))
	for _, sess := range cs.sessions {
		out = append(out, model.ChatSummary{
			ID:           sess.id,
			Title:        sess.title,
			UpdatedAt:    sess.updatedAt,
			MessageCount: len(sess.messages),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Delete remove o chat
func (cs *ChatStore) Delete(chatID string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.sessions[chatID]; !ok {
		return ErrChatNotFound
	}
	delete(cs.sessions, chatID)
	return nil
}

// Len retorna o número de chats guardados
func (cs *ChatStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.sessions)
}

// getOrCreate deve ser chamado com cs.mu travado. Retorna também os IDs dos
// chats removidos para abrir espaço.
func (cs *ChatStore) getOrCreate(chatID string) (*chatSession, []string) {
	if sess, exists := cs.sessions[chatID]; exists {
		return sess, nil
	}

	var evicted []string
	for cs.maxChats > 0 && len(cs.sessions) >= cs.maxChats {
		evicted = append(evicted, cs.evictOldest())
	}

	sess := &chatSession{
		id:        chatID,
		title:     DefaultTitle,
		updatedAt: cs.now(),
	}
	cs.sessions[chatID] = sess
	return sess, evicted
}

// evictOldest exige pelo menos um chat guardado
func (cs *ChatStore) evictOldest() string {
	var oldest *chatSession
	for _, sess := range cs.sessions {
		if oldest == nil || sess.updatedAt.Before(oldest.updatedAt) {
			oldest = sess
		}
	}
	delete(cs.sessions, oldest.id)
	return oldest.id
}

func (s *chatSession) snapshot() model.Chat {
	messages := make([]model.Message, len(s.messages))
	copy(messages, s.messages)
	return model.Chat{
		ID:        s.id,
		Title:     s.title,
		UpdatedAt: s.updatedAt,
		Messages:  messages,
	}
}

// Title gera o título do chat a partir da primeira mensagem do usuário:
// os primeiros 30 caracteres, com "..." quando o texto é maior.
func Title(text string) string {
	runes := []rune(text)
	if len(runes) <= titleLength {
		return text
	}
	return string(runes[:titleLength]) + "..."
}
