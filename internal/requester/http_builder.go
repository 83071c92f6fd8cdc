package requester

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/brizzai/auth-gateway/internal/config"
)

const defaultPartContentType = "application/octet-stream"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// HTTPRequestBuilder turns an Upload into the request sent to the processing service
type HTTPRequestBuilder struct {
	serviceCfg *config.ProcessingConfig
	authMgr    AuthManager
}

// NewHTTPRequestBuilder creates a new HTTPRequestBuilder
func NewHTTPRequestBuilder(cfg *config.ProcessingConfig, authMgr AuthManager) *HTTPRequestBuilder {
	return &HTTPRequestBuilder{
		serviceCfg: cfg,
		authMgr:    authMgr,
	}
}

// BuildRequest builds a POST carrying upload as the multipart field "file"
func (b *HTTPRequestBuilder) BuildRequest(ctx context.Context, upload *Upload) (*http.Request, error) {
	body, contentType, err := b.createMultipartBody(upload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.serviceCfg.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range b.serviceCfg.Headers {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("Content-Type", contentType)

	if err := b.authMgr.ApplyAuth(httpReq); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}
	return httpReq, nil
}

// createMultipartBody keeps the browser's content type on the file part,
// which multipart.Writer.CreateFormFile would replace
func (b *HTTPRequestBuilder) createMultipartBody(upload *Upload) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	partType := upload.ContentType
	if partType == "" {
		partType = defaultPartContentType
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FileField, quoteEscaper.Replace(upload.Filename)))
	header.Set("Content-Type", partType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, "", fmt.Errorf("failed to copy file: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
