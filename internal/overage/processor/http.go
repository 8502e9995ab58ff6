// Package processor delivers overage submissions to the external billing
// processor over HTTP.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/frontdesk/platform/internal/config"
	"github.com/frontdesk/platform/internal/overage/domain"
	"go.uber.org/zap"
)

type httpProcessor struct {
	log    *zap.Logger
	client *http.Client
	url    string
	apiKey string
}

// New returns the configured processor. Without a processor URL the
// deployment runs standalone and submissions are acknowledged locally.
func New(cfg config.Config, log *zap.Logger) domain.Processor {
	if cfg.BillingProcessorURL == "" {
		return &logProcessor{log: log.Named("overage.processor")}
	}
	return &httpProcessor{
		log:    log.Named("overage.processor"),
		client: &http.Client{Timeout: cfg.BillingProcessorTimeout},
		url:    cfg.BillingProcessorURL,
		apiKey: cfg.BillingProcessorAPIKey,
	}
}

func (p *httpProcessor) SubmitOverage(ctx context.Context, submission domain.Submission) error {
	body, err := json.Marshal(submission)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", domain.ErrExternalService, resp.StatusCode)
	}
	return nil
}

type logProcessor struct {
	log *zap.Logger
}

func (p *logProcessor) SubmitOverage(_ context.Context, submission domain.Submission) error {
	p.log.Info("overage submission accepted locally",
		zap.String("tenant_id", submission.TenantID),
		zap.String("period_id", submission.PeriodID),
		zap.Int64("overage_minutes", submission.OverageMinutes),
		zap.String("amount", submission.Amount.String()),
	)
	return nil
}
