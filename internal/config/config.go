package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Responders suportados pelo endpoint de chat
const (
	ResponderEcho   = "echo"
	ResponderGemini = "gemini"
)

// Config reúne toda a configuração do serviço, lida das variáveis de ambiente
type Config struct {
	Host            string
	Port            string
	AllowedOrigins  []string
	LogLevel        string
	Responder       string
	GoogleAPIKey    string
	GeminiModel     string
	McpEndpoint     string
	McpToken        string
	RateLimitRPS    float64
	RateLimitBurst  int
	ChatLimit       int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Addr retorna o endereço de escuta no formato host:port
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Default retorna a configuração usada quando nenhuma variável está definida
func Default() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            "8000",
		AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
		LogLevel:        "info",
		Responder:       ResponderEcho,
		GeminiModel:     "gemini-2.5-flash",
		RateLimitBurst:  10,
		ChatLimit:       1000,
		RequestTimeout:  60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load lê a configuração do ambiente. Valores ausentes usam os defaults,
// valores inválidos retornam erro.
func Load() (Config, error) {
	cfg := Default()

	if v := os.Getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("PORT must be a valid integer: %w", err)
		}
		cfg.Port = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("RESPONDER"); v != "" {
		cfg.Responder = strings.ToLower(strings.TrimSpace(v))
	}
	switch cfg.Responder {
	case ResponderEcho, ResponderGemini:
	default:
		return Config{}, fmt.Errorf("RESPONDER must be %q or %q, got %q", ResponderEcho, ResponderGemini, cfg.Responder)
	}

	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}
	cfg.McpEndpoint = os.Getenv("MCP_ENDPOINT")
	cfg.McpToken = os.Getenv("X_TIGER_TOKEN")

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("RATE_LIMIT_RPS must be a non-negative number, got %q", v)
		}
		cfg.RateLimitRPS = rps
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil || burst <= 0 {
			return Config{}, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer, got %q", v)
		}
		cfg.RateLimitBurst = burst
	}
	if v := os.Getenv("CHAT_HISTORY_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return Config{}, fmt.Errorf("CHAT_HISTORY_LIMIT must be a positive integer, got %q", v)
		}
		cfg.ChatLimit = limit
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
