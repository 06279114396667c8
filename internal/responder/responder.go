package responder

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/arewsa/chat-for-deepruta/internal/config"
)

// Responder gera a resposta do assistente para uma mensagem de um chat
type Responder interface {
	Respond(ctx context.Context, chatID, message string) (string, error)
	Name() string
}

// Forgetter é implementado pelos responders que guardam estado por chat.
// Forget descarta esse estado quando o chat é apagado ou removido pelo limite.
type Forgetter interface {
	Forget(ctx context.Context, chatID string) error
}

// New cria o responder escolhido na configuração
func New(ctx context.Context, cfg config.Config, log *logrus.Logger) (Responder, error) {
	switch cfg.Responder {
	case "", config.ResponderEcho:
		return Echo{}, nil
	case config.ResponderGemini:
		g, err := NewGemini(ctx, GeminiConfig{
			APIKey:      cfg.GoogleAPIKey,
			Model:       cfg.GeminiModel,
			McpEndpoint: cfg.McpEndpoint,
			McpToken:    cfg.McpToken,
		}, log)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown responder %q", cfg.Responder)
	}
}
