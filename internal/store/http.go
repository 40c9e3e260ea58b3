package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/logging"
)

// HTTP reads cases from the CRUD layer's REST API: GET /cases/{id} for the
// record and GET /cases/{id}/{collection} for each child collection.
type HTTP struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTP creates a client for the API at baseURL
func NewHTTP(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTP {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &HTTP{client: client, logger: logging.OrNop(logger)}
}

// Get fetches the case and then its collections concurrently. Collections
// already embedded in the case response are not fetched again.
func (h *HTTP) Get(ctx context.Context, id string) (casefile.Case, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/cases/{id}")
	if err != nil {
		return casefile.Case{}, fmt.Errorf("failed to call case API: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return casefile.Case{}, notFound(id)
	}
	if resp.IsError() {
		return casefile.Case{}, fmt.Errorf("case API returned %s for case %s", resp.Status(), id)
	}

	payload := casefile.Record{}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return casefile.Case{}, fmt.Errorf("failed to decode case %s: %w", id, err)
	}
	if _, ok := casefile.Resolve(payload, "id", "caseId", "case_id"); !ok {
		payload["id"] = id
	}

	children := make([][]any, len(collections))
	g, gctx := errgroup.WithContext(ctx)
	for i, col := range collections {
		if embedded(payload, col) {
			continue
		}
		g.Go(func() error {
			rows, err := h.childRows(gctx, col, id)
			if err != nil {
				return err
			}
			children[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return casefile.Case{}, err
	}
	for i, col := range collections {
		if children[i] != nil {
			payload[col.key] = children[i]
		}
	}
	return casefile.DecodeCase(payload), nil
}

func embedded(payload casefile.Record, col collection) bool {
	for _, k := range []string{col.camelKey, col.key} {
		if _, ok := payload[k].([]any); ok {
			return true
		}
	}
	return false
}

// childRows fetches one collection; a 404 means the case has none
func (h *HTTP) childRows(ctx context.Context, col collection, id string) ([]any, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": id, "collection": col.resource}).
		Get("/cases/{id}/{collection}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s for case %s: %w", col.resource, id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("case API returned %s for %s of case %s", resp.Status(), col.resource, id)
	}

	var rows []any
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		h.logger.Warn("ignoring malformed collection",
			zap.String("collection", col.resource),
			zap.String("case_id", id),
			zap.Error(err))
		return nil, nil
	}
	return rows, nil
}
