package ingestion_engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/metrics"
)

// StatusError is returned when the ingestion service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ingestion service responded %d", e.StatusCode)
	}
	return fmt.Sprintf("ingestion service responded %d: %s", e.StatusCode, e.Body)
}

// HTTPDispatcher posts one JSON notification per trigger. It never retries;
// the caller decides what a failure means for the document.
type HTTPDispatcher struct {
	cfg     DispatchConfig
	client  *http.Client
	metrics metrics.Recorder
	log     logrus.FieldLogger
}

var _ core.Dispatcher = (*HTTPDispatcher)(nil)

func NewHTTPDispatcher(cfg DispatchConfig, rec metrics.Recorder, log logrus.FieldLogger) (*HTTPDispatcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &HTTPDispatcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: rec,
		log:     log,
	}, nil
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, req core.IngestionRequest) error {
	start := time.Now()
	err := d.post(ctx, req)
	d.metrics.RecordDispatch(err == nil, time.Since(start))

	entry := d.log.WithFields(logrus.Fields{
		"document_id": req.DocumentID,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("ingestion dispatch failed")
		return err
	}
	entry.Info("ingestion dispatched")
	return nil
}

func (d *HTTPDispatcher) post(ctx context.Context, req core.IngestionRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode ingestion request: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctxReq, http.MethodPost, d.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ingestion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ingestion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, d.cfg.MaxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
