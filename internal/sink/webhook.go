package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	contentType    = "application/json"
	userAgent      = "spigell/interview-screener"
	webhookTimeout = 10 * time.Second
)

// webhookPayload is the flat record expected by the results workflow.
type webhookPayload struct {
	ID                string `json:"id"`
	OverallScore      string `json:"Overall Score"`
	OverallLevel      string `json:"Overall Level"`
	TechnicalAccuracy string `json:"Technical Accuracy"`
	ProblemSolving    string `json:"Problem Solving"`
	Communication     string `json:"Communication"`
	Documentation     string `json:"Documentation"`
}

// WebhookNotifier posts interview summaries to an external workflow URL.
type WebhookNotifier struct {
	url        string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = webhookTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WebhookNotifier{
		url:    url,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, r Record) error {
	payload := webhookPayload{
		ID:                r.CandidateID,
		OverallScore:      strconv.FormatFloat(r.OverallScore, 'f', -1, 64),
		OverallLevel:      string(r.OverallLevel),
		TechnicalAccuracy: strconv.FormatFloat(r.TechnicalAccuracy, 'f', 1, 64),
		ProblemSolving:    strconv.FormatFloat(r.ProblemSolving, 'f', 1, 64),
		Communication:     strconv.FormatFloat(r.Communication, 'f', 1, 64),
		Documentation:     strconv.FormatFloat(r.Documentation, 'f', 1, 64),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", w.UserAgent)

	w.logger.Debug("make request", zap.String("candidate_id", r.CandidateID))
	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	return nil
}
