package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/Sternrassler/cms-client/pkg/config"
	"github.com/Sternrassler/cms-client/pkg/metrics"
	"github.com/rs/zerolog"
)

// cachedResponse is what the proxy keeps per upstream GET.
type cachedResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type proxy struct {
	api    *client.Client
	cache  *cache.Cache
	config config.CacheConfig
	logger zerolog.Logger
}

func newProxy(api *client.Client, c *cache.Cache, cfg config.CacheConfig, logger zerolog.Logger) *proxy {
	return &proxy{
		api:    api,
		cache:  c,
		config: cfg,
		logger: logger,
	}
}

func (p *proxy) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", p.handleHealth)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/api/", p.handleAPI)
	mux.HandleFunc("/cache", p.handleCache)
	return mux
}

func (p *proxy) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAPI forwards GET /api/<path> to <base_url>/<path>.
func (p *proxy) handleAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is proxied")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api")
	query := r.URL.Query()
	key := cache.BuildKey("proxy.get", map[string]any{"path": path, "query": query})

	load := func(ctx context.Context) (any, error) {
		resp, err := p.api.Do(ctx, &client.Request{
			Method:    http.MethodGet,
			Path:      path,
			Query:     query,
			Operation: "proxy.get",
		})
		if err != nil {
			return nil, err
		}
		return &cachedResponse{
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        resp.Body,
		}, nil
	}

	var (
		value any
		err   error
		state = "BYPASS"
	)
	switch {
	case !p.config.Enabled || p.config.TTL <= 0:
		value, err = load(r.Context())
	default:
		var ok bool
		if value, ok = p.cache.Get(key); ok {
			state = "HIT"
			if entry, found := p.cache.Entry(key); found {
				age := int(entry.Age(time.Now()).Seconds())
				w.Header().Set("Age", strconv.Itoa(age))
			}
		} else {
			state = "MISS"
			value, err = p.cache.GetOrLoad(r.Context(), key, p.config.TTL, load)
		}
	}
	if err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("Upstream request failed")
		writeUpstreamError(w, err)
		return
	}

	resp := value.(*cachedResponse)
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set("X-Cache", state)
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}

// handleCache reports (GET) or drops (DELETE, optionally ?prefix=) cache entries.
func (p *proxy) handleCache(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"size":    p.cache.Size(),
			"enabled": p.config.Enabled,
			"ttl":     p.config.TTL.String(),
		})
	case http.MethodDelete:
		if prefix := r.URL.Query().Get("prefix"); prefix != "" {
			n := p.cache.DeletePrefix(cache.Prefix(prefix))
			writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
			return
		}
		n := p.cache.Size()
		p.cache.Clear()
		p.logger.Info().Int("entries", n).Msg("Cache cleared")
		writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
	default:
		w.Header().Set("Allow", "GET, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET or DELETE")
	}
}

// writeUpstreamError maps a client error onto a proxy response.
func writeUpstreamError(w http.ResponseWriter, err error) {
	code := string(client.CodeOf(err))

	var apiErr *client.Error
	switch {
	case client.StatusCode(err) != 0:
		writeError(w, client.StatusCode(err), code, err.Error())
	case client.IsValidation(err):
		writeError(w, http.StatusBadRequest, code, err.Error())
	case client.CodeOf(err) == client.CodeRateLimited:
		writeError(w, http.StatusTooManyRequests, code, err.Error())
	case errors.As(err, &apiErr) && apiErr.Class == client.ErrorClassTimeout:
		writeError(w, http.StatusGatewayTimeout, code, err.Error())
	default:
		writeError(w, http.StatusBadGateway, code, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// runJanitor prunes expired entries every interval until ctx is done.
func runJanitor(ctx context.Context, c *cache.Cache, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Prune(); n > 0 {
				logger.Debug().Int("entries", n).Msg("Pruned expired cache entries")
			}
		}
	}
}

// serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, cfg config.ProxyConfig, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Listen).Msg("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownTimeout := cfg.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = 5 * time.Second
		}
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info().Msg("Shutting down")
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
