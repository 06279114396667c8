package model

import "time"

// ChatRequest representa a requisição para o endpoint de chat.
// Os campos são ponteiros para distinguir "ausente" de string vazia.
type ChatRequest struct {
	Message *string `json:"message" validate:"required"`
	ChatID  *string `json:"chatId" validate:"required"`
}

// ChatResponse representa a resposta do endpoint de chat
type ChatResponse struct {
	Response string `json:"response"`
}

// HealthResponse representa a resposta do health check
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse é o corpo dos erros 404, 429 e 500
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationIssue descreve um campo rejeitado na validação do corpo
type ValidationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationErrorResponse é o corpo das respostas 422
type ValidationErrorResponse struct {
	Detail []ValidationIssue `json:"detail"`
}

// Papéis das mensagens no histórico
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message é uma mensagem do histórico de um chat
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat é uma conversa com o seu histórico completo
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// ChatSummary é a visão resumida usada na listagem de chats
type ChatSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}
