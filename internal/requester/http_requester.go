package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/auth-gateway/internal/apperr"
	"github.com/brizzai/auth-gateway/internal/config"
	"github.com/brizzai/auth-gateway/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// HTTPRequester forwards uploads to the processing service. Each upload is
// sent exactly once; there is no retry.
type HTTPRequester struct {
	client  *http.Client
	builder *HTTPRequestBuilder
}

type HTTPRequesterParams struct {
	fx.In

	ProcessingConfig *config.ProcessingConfig
	AuthManager      AuthManager
}

// NewHTTPRequester creates a new HTTPRequester bounded by the configured timeout
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	timeout := params.ProcessingConfig.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPRequester{
		client: &http.Client{
			Timeout: timeout,
		},
		builder: NewHTTPRequestBuilder(params.ProcessingConfig, params.AuthManager),
	}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// Forward sends upload to the processing service and returns its answer,
// whatever the status. A transport failure is an UpstreamUnreachable error.
func (r *HTTPRequester) Forward(ctx context.Context, upload *Upload) (*Response, error) {
	req, err := r.builder.BuildRequest(ctx, upload)
	if err != nil {
		return nil, err
	}
	logger.Info("Forwarding upload",
		zap.String("url", req.URL.String()),
		zap.String("filename", upload.Filename),
		zap.Int("size", len(upload.Data)),
	)

	resp, err := r.execute(req)
	if err != nil {
		logger.Error("Failed to reach processing service", zap.Error(err))
		return nil, apperr.UpstreamUnreachable(err)
	}
	return resp, nil
}

// execute performs the actual HTTP request execution
func (r *HTTPRequester) execute(req *http.Request) (resp *Response, err error) {
	httpResp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       bodyBytes,
		Headers:    httpResp.Header,
	}, nil
}
