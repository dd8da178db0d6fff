package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/peer-rendezvous/backend/api/handlers"
	"github.com/peer-rendezvous/backend/internal/admission"
	"github.com/peer-rendezvous/backend/internal/config"
	"github.com/peer-rendezvous/backend/internal/model"
	"github.com/peer-rendezvous/backend/internal/registry"
	"github.com/peer-rendezvous/backend/internal/ws"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load configuration, with environment overrides
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Key = getEnv("RENDEZVOUS_KEY", cfg.Key)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize registry and admission layer
	reg := registry.New()
	events := admission.NewEvents()
	admitter := admission.NewAdmitter(reg, events, admission.Options{
		Key:               cfg.Key,
		MaxConnections:    cfg.MaxConnections,
		ReuseEvictedToken: cfg.ReuseEvictedToken,
	}, log)

	// Message dispatch: deliver relayed messages to their destination,
	// queueing for peers that are momentarily unbound.
	wireDispatch(events, reg, log)

	// Restrict WebSocket origins when configured; the default stays
	// permissive for development.
	if len(cfg.AllowedOrigins) > 0 {
		allowed := make(map[string]bool, len(cfg.AllowedOrigins))
		for _, origin := range cfg.AllowedOrigins {
			allowed[origin] = true
		}
		ws.SetCheckOrigin(func(r *http.Request) bool {
			return allowed[r.Header.Get("Origin")]
		})
	}

	// Initialize handlers
	signalingHandler := handlers.NewSignalingHandler(admitter, reg, cfg.AllowDiscovery)

	// Initialize Gin router
	r := gin.Default()
	r.Use(corsMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	base := r.Group(cfg.BasePath)
	signalingHandler.RegisterRoutes(base)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down server")
		os.Exit(0)
	}()

	addr := cfg.Host + ":" + cfg.Port
	log.Info().Str("addr", addr).Str("base_path", cfg.BasePath).Msg("starting rendezvous server")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// wireDispatch forwards each relayed message to the peer named in its
// dst field. Messages for a registered but momentarily unbound peer
// are queued and flushed when its next transport binds.
func wireDispatch(events *admission.Events, reg *registry.Registry, log zerolog.Logger) {
	events.SetOnMessage(func(src *model.Peer, msg map[string]any) {
		dst, _ := msg["dst"].(string)
		if dst == "" {
			log.Debug().Str("src", src.ID()).Msg("dropping message without dst")
			return
		}
		target, ok := reg.Lookup(dst)
		if !ok {
			log.Debug().Str("src", src.ID()).Str("dst", dst).Msg("dropping message for unknown peer")
			return
		}
		if t := target.Transport(); t != nil {
			if err := t.Send(msg); err == nil {
				return
			}
		}
		reg.Enqueue(dst, msg)
	})

	events.SetOnRelayError(func(err error) {
		log.Warn().Err(err).Msg("relay error")
	})
	events.SetOnSessionClosed(func(peer *model.Peer) {
		log.Info().Str("id", peer.ID()).Msg("peer disconnected")
	})
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
