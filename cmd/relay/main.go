// Package main provides a minimal HTTP relay that forwards push requests
// to FCM. It exists for clients that cannot mint FCM credentials
// themselves and for smoke-testing delivery.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartshare/cartshare/internal/push"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

type sendRequest struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func main() {
	const serviceName = "cartshare-relay"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CartShare push relay")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	fcmProjectID := os.Getenv("FCM_PROJECT_ID")
	if fcmProjectID == "" {
		fcmProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if fcmProjectID == "" {
		log.Fatal().Msg("FCM_PROJECT_ID or GOOGLE_CLOUD_PROJECT is required")
	}

	ctx := context.Background()
	client, err := push.NewClient(ctx, push.ClientConfig{
		ProjectID: fcmProjectID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create push client")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/sendPushNotification", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Token == "" || req.Title == "" || req.Body == "" {
			http.Error(w, "token, title and body are required", http.StatusBadRequest)
			return
		}

		result, err := client.SendMessage(r.Context(), req.Token, req.Title, req.Body)
		if err != nil {
			log.Error().Err(err).Msg("push send failed")
			http.Error(w, "failed to send push notification", http.StatusInternalServerError)
			return
		}

		// Relay the FCM response as-is so callers see rejection details
		// like UNREGISTERED tokens.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(result.StatusCode)
		_, _ = w.Write(result.Body)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("relay listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down relay")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("relay stopped")
}
