package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/arewsa/chat-for-deepruta/internal/config"
	"github.com/arewsa/chat-for-deepruta/internal/model"
	"github.com/arewsa/chat-for-deepruta/internal/server"
	"github.com/arewsa/chat-for-deepruta/internal/service"
)

// HealthMessage é a mensagem fixa do health check
const HealthMessage = "ChatForDeepRuta API работает!"

// maxBodyBytes limita o corpo do POST /api/chat
const maxBodyBytes = 1 << 20

// Handler contém as dependências necessárias para os handlers HTTP
type Handler struct {
	server *server.Server
}

// NewHandler cria uma nova instância do Handler
func NewHandler(srv *server.Server) *Handler {
	return &Handler{
		server: srv,
	}
}

// HandleRoot retorna informações sobre o serviço
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"service": "ChatForDeepRuta API",
		"endpoints": map[string]interface{}{
			"chat": map[string]interface{}{
				"url":         "/api/chat",
				"method":      "POST",
				"description": "Send a message and get the assistant response",
				"example": map[string]string{
					"message": "Привет!",
					"chatId":  "1",
				},
			},
			"health": map[string]interface{}{
				"url":         "/api/health",
				"method":      "GET",
				"description": "Health check endpoint",
			},
			"chats": map[string]interface{}{
				"url":         "/api/chats/{chatId}",
				"method":      "GET, DELETE",
				"description": "List, read and delete chat history",
			},
			"tools": map[string]interface{}{
				"url":         "/api/tools",
				"method":      "GET",
				"description": "Responder and MCP tools status",
			},
			"metrics": map[string]interface{}{
				"url":         "/metrics",
				"method":      "GET",
				"description": "Prometheus metrics",
			},
		},
		"responder": h.server.Responder.Name(),
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleHealth retorna o status de saúde do servidor
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:  "ok",
		Message: HealthMessage,
	})
}

// HandleTools retorna informações sobre o responder e as ferramentas MCP
func (h *Handler) HandleTools(w http.ResponseWriter, r *http.Request) {
	cfg := h.server.Config
	mcpEnabled := cfg.Responder == config.ResponderGemini && cfg.McpEndpoint != ""

	response := map[string]interface{}{
		"responder":   h.server.Responder.Name(),
		"mcp_enabled": mcpEnabled,
	}
	if mcpEnabled {
		response["mcp_endpoint"] = cfg.McpEndpoint
		response["message"] = "MCP tools are available through the agent"
		response["note"] = "To see available tools, ask the agent 'What tools do you have available?' in a chat message"
	} else {
		response["message"] = "No MCP tools: set RESPONDER=gemini and MCP_ENDPOINT to enable them"
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleChat processa mensagens enviadas ao chat
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, model.ValidationErrorResponse{Detail: []model.ValidationIssue{
			{Loc: []string{"body"}, Msg: "could not read request body", Type: "value_error"},
		}})
		return
	}

	req, issues := decodeChatRequest(data)
	if len(issues) > 0 {
		h.log(r).WithField("issues", len(issues)).Debug("chat request rejected")
		writeJSON(w, http.StatusUnprocessableEntity, model.ValidationErrorResponse{Detail: issues})
		return
	}
	message, chatID := *req.Message, *req.ChatID

	reply, err := h.respond(r, chatID, message)
	h.server.Metrics.ObserveChat(h.server.Responder.Name(), err)
	if err != nil {
		h.log(r).WithError(err).WithField("chat_id", chatID).Error("failed to process message")
		// um chat que nunca foi gravado não deve deixar estado no responder
		if _, getErr := h.server.Chats.Get(chatID); errors.Is(getErr, service.ErrChatNotFound) {
			h.server.Forget(r.Context(), chatID)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.server.Chats.Record(chatID, message, reply)
	h.log(r).WithField("chat_id", chatID).Debug("message processed")

	writeJSON(w, http.StatusOK, model.ChatResponse{Response: reply})
}

// respond chama o responder convertendo panics em erro
func (h *Handler) respond(r *http.Request, chatID, message string) (reply string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	return h.server.Responder.Respond(r.Context(), chatID, message)
}

// HandleListChats lista os chats do mais recente para o mais antigo
func (h *Handler) HandleListChats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.server.Chats.List())
}

// HandleGetChat retorna um chat com todas as mensagens
func (h *Handler) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	chat, err := h.server.Chats.Get(chatID)
	if errors.Is(err, service.ErrChatNotFound) {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// HandleDeleteChat remove um chat e o estado do responder associado a ele
func (h *Handler) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err := h.server.Chats.Delete(chatID); errors.Is(err, service.ErrChatNotFound) {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	h.server.Forget(r.Context(), chatID)
	w.WriteHeader(http.StatusNoContent)
}

// chatIDParam lê o {chatId} da rota. Quando a URL tem RawPath o chi roteia
// pelo caminho ainda codificado (ex.: a%2Fb), então o valor precisa ser decodificado.
func chatIDParam(r *http.Request) (string, bool) {
	chatID := chi.URLParam(r, "chatId")
	if r.URL.RawPath == "" {
		return chatID, true
	}
	decoded, err := url.PathUnescape(chatID)
	if err != nil {
		return "", false
	}
	return decoded, true
}

func (h *Handler) log(r *http.Request) *logrus.Entry {
	return h.server.Log.WithField("request_id", middleware.GetReqID(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, model.ErrorResponse{Detail: detail})
}
