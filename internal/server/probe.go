package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/arewsa/chat-for-deepruta/internal/model"
)

// Probe consulta GET /api/health em baseURL e retorna erro se o serviço não estiver ok
func Probe(ctx context.Context, client *http.Client, baseURL string) (model.HealthResponse, error) {
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimRight(baseURL, "/") + "/api/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.HealthResponse{}, fmt.Errorf("build health request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return model.HealthResponse{}, fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.HealthResponse{}, fmt.Errorf("health check returned HTTP %d", resp.StatusCode)
	}

	var health model.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return model.HealthResponse{}, fmt.Errorf("decode health response: %w", err)
	}
	if health.Status != "ok" {
		return health, fmt.Errorf("service reported status %q", health.Status)
	}
	return health, nil
}
