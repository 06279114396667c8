package responder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/mcptoolset"
	"google.golang.org/genai"
)

const (
	appName       = "chat-for-deepruta"
	defaultUserID = "default-user"
	emptyReply    = "Агент обработал сообщение, но не вернул ответ."
)

// ErrMissingAPIKey é retornado quando o responder gemini é escolhido sem GOOGLE_API_KEY
var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY is not set")

// GeminiConfig configura o responder baseado no ADK
type GeminiConfig struct {
	APIKey      string
	Model       string
	McpEndpoint string
	McpToken    string
}

// AuthenticatedTransport adiciona o header de autenticação às requisições MCP
type AuthenticatedTransport struct {
	Base  http.RoundTripper
	Token string
	Log   *logrus.Logger
}

func (t *AuthenticatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clonar a requisição para não modificar a original
	reqCopy := req.Clone(req.Context())
	if t.Token != "" {
		reqCopy.Header.Set("X-Tiger-Token", t.Token)
	}

	if t.Log != nil {
		t.Log.WithFields(logrus.Fields{"method": reqCopy.Method, "url": reqCopy.URL.String()}).Debug("MCP request")
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(reqCopy)
}

// Gemini responde usando um agente ADK. Cada chatId é uma sessão do ADK.
type Gemini struct {
	runner   *runner.Runner
	sessions session.Service
	log      *logrus.Logger

	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

// NewGemini cria o modelo, o toolset MCP opcional, o agente e o runner
func NewGemini(ctx context.Context, cfg GeminiConfig, log *logrus.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	llmModel, err := gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	var toolsets []tool.Toolset
	if cfg.McpEndpoint != "" {
		if cfg.McpToken == "" {
			log.Warn("X_TIGER_TOKEN is not set - MCP requests may fail with 403")
		}

		httpClient := &http.Client{
			Transport: &AuthenticatedTransport{
				Base:  http.DefaultTransport,
				Token: cfg.McpToken,
				Log:   log,
			},
			Timeout: 30 * time.Second,
		}

		log.WithField("endpoint", cfg.McpEndpoint).Info("Connecting to MCP endpoint")
		mcpToolSet, err := mcptoolset.New(mcptoolset.Config{
			Transport: &mcp.StreamableClientTransport{
				Endpoint:   cfg.McpEndpoint,
				HTTPClient: httpClient,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MCP tool set: %w", err)
		}
		toolsets = append(toolsets, mcpToolSet)
	}

	a, err := llmagent.New(llmagent.Config{
		Name:        "deepruta_agent",
		Model:       llmModel,
		Description: "ChatForDeepRuta assistant.",
		Instruction: "You are a helpful assistant. Answer in the language of the user.",
		Toolsets:    toolsets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessionService := session.InMemoryService()
	agentRunner, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          a,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	log.WithFields(logrus.Fields{"model": cfg.Model, "mcp_tools": len(toolsets) > 0}).Info("Gemini responder initialized")

	return &Gemini{
		runner:   agentRunner,
		sessions: sessionService,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Respond executa um turno do agente na sessão do chat
func (g *Gemini) Respond(ctx context.Context, chatID, message string) (string, error) {
	lock := g.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	if err := g.ensureSession(ctx, chatID); err != nil {
		return "", err
	}

	userContent := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: message}},
	}

	var responseText strings.Builder
	for event, err := range g.runner.Run(ctx, defaultUserID, chatID, userContent, agent.RunConfig{}) {
		if err != nil {
			return "", fmt.Errorf("failed to process message: %w", err)
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part.Text != "" {
				responseText.WriteString(part.Text)
			}
		}
	}

	reply := responseText.String()
	if reply == "" {
		reply = emptyReply
	}
	g.log.WithFields(logrus.Fields{"chat_id": chatID, "chars": len(reply)}).Debug("Agent response")
	return reply, nil
}

// ensureSession cria a sessão do ADK no primeiro turno do chat
func (g *Gemini) ensureSession(ctx context.Context, chatID string) error {
	if _, err := g.sessions.Get(ctx, &session.GetRequest{
		AppName:   appName,
		UserID:    defaultUserID,
		SessionID: chatID,
	}); err == nil {
		return nil
	}

	_, err := g.sessions.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    defaultUserID,
		SessionID: chatID,
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Forget apaga a sessão do ADK do chat e o lock dele. Um chat novo com o
// mesmo ID começa sem histórico.
func (g *Gemini) Forget(ctx context.Context, chatID string) error {
	lock := g.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.locks, chatID)
		g.mu.Unlock()
	}()

	if _, err := g.sessions.Get(ctx, &session.GetRequest{
		AppName:   appName,
		UserID:    defaultUserID,
		SessionID: chatID,
	}); err != nil {
		// a sessão nunca foi criada (ex.: o primeiro turno falhou)
		return nil
	}

	if err := g.sessions.Delete(ctx, &session.DeleteRequest{
		AppName:   appName,
		UserID:    defaultUserID,
		SessionID: chatID,
	}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (g *Gemini) lockFor(chatID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	lock, ok := g.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[chatID] = lock
	}
	return lock
}
