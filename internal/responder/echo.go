package responder

import (
	"context"
	"fmt"
)

// EchoTemplate é o modelo da resposta de teste
const EchoTemplate = "Вы написали: '%s'. Это тестовый ответ от AI!"

// Echo devolve a mensagem do usuário dentro de EchoTemplate
type Echo struct{}

func (Echo) Name() string { return "echo" }

func (Echo) Respond(_ context.Context, _ string, message string) (string, error) {
	return fmt.Sprintf(EchoTemplate, message), nil
}
