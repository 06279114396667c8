package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/arewsa/chat-for-deepruta/internal/config"
	"github.com/arewsa/chat-for-deepruta/internal/metrics"
	"github.com/arewsa/chat-for-deepruta/internal/responder"
	"github.com/arewsa/chat-for-deepruta/internal/service"
)

// Handlers são os endpoints HTTP montados pelo SetupRouter
type Handlers interface {
	HandleRoot(http.ResponseWriter, *http.Request)
	HandleHealth(http.ResponseWriter, *http.Request)
	HandleChat(http.ResponseWriter, *http.Request)
	HandleListChats(http.ResponseWriter, *http.Request)
	HandleGetChat(http.ResponseWriter, *http.Request)
	HandleDeleteChat(http.ResponseWriter, *http.Request)
	HandleTools(http.ResponseWriter, *http.Request)
}

// Server representa o servidor HTTP com todas as dependências
type Server struct {
	Config    config.Config
	Log       *logrus.Logger
	Responder responder.Responder
	Chats     *service.ChatStore
	Metrics   *metrics.Metrics
	Router    chi.Router
}

// NewServer cria uma nova instância do servidor
func NewServer(ctx context.Context, cfg config.Config, log *logrus.Logger) (*Server, error) {
	r, err := responder.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create responder: %w", err)
	}

	s := &Server{
		Config:    cfg,
		Log:       log,
		Responder: r,
		Chats:     service.NewChatStore(cfg.ChatLimit),
		Metrics:   metrics.New(),
	}
	s.Chats.OnEvict(func(chatID string) {
		s.Forget(context.Background(), chatID)
	})
	return s, nil
}

// Forget descarta o estado do responder para o chat, quando ele guarda algum
func (s *Server) Forget(ctx context.Context, chatID string) {
	f, ok := s.Responder.(responder.Forgetter)
	if !ok {
		return
	}
	if err := f.Forget(ctx, chatID); err != nil {
		s.Log.WithError(err).WithField("chat_id", chatID).Warn("failed to forget chat state")
	}
}

// SetupRouter configura as rotas e middlewares do Chi
func (s *Server) SetupRouter(h Handlers) {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.Log))
	r.Use(middleware.Recoverer)
	r.Use(s.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(s.Config.RequestTimeout))

	// Rotas
	r.Get("/", h.HandleRoot)
	r.Handle("/metrics", s.Metrics.Handler())

	// API Routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/tools", h.HandleTools)

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(s.Config.RateLimitRPS, s.Config.RateLimitBurst))
			r.Post("/chat", h.HandleChat)
			r.Get("/chats", h.HandleListChats)
			r.Get("/chats/{chatId}", h.HandleGetChat)
			r.Delete("/chats/{chatId}", h.HandleDeleteChat)
		})
	})

	s.Router = r
}

// Start inicia o servidor HTTP e faz o graceful shutdown quando ctx é cancelado
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.Config.Addr(),
		Handler:      s.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.Config.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.Log.Info("╔════════════════════════════════════════════════════╗")
		s.Log.Info("║   ChatForDeepRuta API                              ║")
		s.Log.Info("╚════════════════════════════════════════════════════╝")
		s.Log.WithFields(logrus.Fields{
			"addr":      httpServer.Addr,
			"responder": s.Responder.Name(),
			"origins":   s.Config.AllowedOrigins,
		}).Info("🚀 HTTP server started")
		s.Log.Info("📌 Endpoints: GET / | GET /api/health | POST /api/chat | GET,DELETE /api/chats | GET /api/tools | GET /metrics")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed: %w", err)
			return
		}
		serverErr <- nil
	}()

	// Aguardar sinal de interrupção ou falha do servidor
	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	s.Log.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-serverErr; err != nil {
		return err
	}
	s.Log.Info("✅ Server stopped gracefully")
	return nil
}
