// Command bojstat-demo runs a small HTTP server embedding the client
// for manual exercising, and as a template for embedding it in a
// service: /query proxies one Request Specification to the engine,
// /healthz reports liveness, /metrics exposes the Prometheus registry.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ysakurai/bojstat-go/pkg/boj"
	"github.com/ysakurai/bojstat-go/pkg/client"
	"github.com/ysakurai/bojstat-go/pkg/logging"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") != "",
		Output: os.Stderr,
	})

	cfg := client.DefaultConfig()
	cfg.UserAgent = getEnv("USER_AGENT", cfg.UserAgent)
	cfg.BaseURL = getEnv("BASE_URL", cfg.BaseURL)
	cfg.Cache.Dir = getEnv("CACHE_DIR", "")
	cfg.Logger = logger

	bojClient, err := client.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create client")
	}
	defer bojClient.Close()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Get("/healthz", healthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/query", queryHandler(bojClient))

	addr := ":" + getEnv("PORT", "8080")
	logger.Info().Str("addr", addr).Msg("starting bojstat-demo")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// queryRequest mirrors the Request Specification described in the
// component design, as a JSON wire shape for this demo surface.
type queryRequest struct {
	Endpoint    string   `json:"endpoint"`
	DB          string   `json:"db"`
	Codes       []string `json:"codes,omitempty"`
	Layer       []string `json:"layer,omitempty"`
	Frequency   string   `json:"frequency,omitempty"`
	Start       string   `json:"start,omitempty"`
	End         string   `json:"end,omitempty"`
	Lang        string   `json:"lang,omitempty"`
	Format      string   `json:"format,omitempty"`
	ResumeToken string   `json:"resume_token,omitempty"`
}

func queryHandler(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q queryRequest
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		req := boj.Request{
			DB:          q.DB,
			Codes:       q.Codes,
			Layer:       q.Layer,
			Frequency:   boj.Frequency(q.Frequency),
			Start:       q.Start,
			End:         q.End,
			Lang:        boj.Lang(q.Lang),
			Format:      boj.Format(q.Format),
			ResumeToken: q.ResumeToken,
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		var result any
		var err error
		switch q.Endpoint {
		case "getDataCode":
			result, err = c.GetByCode(ctx, req)
		case "getDataLayer":
			result, err = c.GetByLayer(ctx, req)
		case "getMetadata":
			result, err = c.GetMetadata(ctx, req)
		default:
			http.Error(w, "endpoint must be one of getDataCode, getDataLayer, getMetadata", http.StatusBadRequest)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch e := err.(type) {
	case *boj.APIError:
		if e.Kind == boj.KindBadRequest {
			status = http.StatusBadRequest
		}
	case *boj.ValidationError:
		status = http.StatusBadRequest
	case *boj.ResumeTokenMismatchError:
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
