package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/irfndi/tokenscope/internal/models"
)

const (
	analysisPath   = "/api/v1/analysis"
	DefaultTimeout = 90 * time.Second
)

// APIError is a non-success response from the analysis server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// APIClient calls the analysis server over HTTP.
type APIClient struct {
	client *resty.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")

	return &APIClient{client: client}
}

// Analyze posts one analysis request. The server's error text is returned
// verbatim; responses without one become "API Error: <status>".
func (c *APIClient) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(analysisPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to reach analysis server: %w", err)
	}

	if !resp.IsSuccess() {
		var body models.ErrorResponse
		_ = json.Unmarshal(resp.Body(), &body)
		msg := strings.TrimSpace(body.Error)
		if msg == "" {
			msg = fmt.Sprintf("API Error: %d", resp.StatusCode())
		}
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	return &result, nil
}
