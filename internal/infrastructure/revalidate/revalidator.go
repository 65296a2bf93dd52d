// Package revalidate notifies the public site that blog content changed so
// it can refresh its cached pages.
package revalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"BlogPipeline/internal/config"
	"BlogPipeline/internal/ports"
)

const (
	revalidatePath = "/api/blog/revalidate"
	secretHeader   = "x-revalidation-secret"
)

type Revalidator struct {
	endpoint   string
	secret     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.Revalidator = (*Revalidator)(nil)

func New(cfg config.RevalidationConfig, logger *slog.Logger) *Revalidator {
	return &Revalidator{
		endpoint: strings.TrimSuffix(cfg.SiteURL, "/") + revalidatePath,
		secret:   cfg.Secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "revalidate"),
	}
}

// Revalidate refreshes the listing pages and one post page.
func (r *Revalidator) Revalidate(ctx context.Context, slug string) (bool, error) {
	return r.send(ctx, map[string]string{"slug": slug})
}

// RevalidateAll refreshes the listing pages only.
func (r *Revalidator) RevalidateAll(ctx context.Context) (bool, error) {
	return r.send(ctx, map[string]string{})
}

func (r *Revalidator) send(ctx context.Context, payload map[string]string) (bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal revalidation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, r.secret)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("call revalidation endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, fmt.Errorf("revalidation error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Revalidated bool `json:"revalidated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	r.logger.Debug("revalidation response", "revalidated", parsed.Revalidated)
	return parsed.Revalidated, nil
}
