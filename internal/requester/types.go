package requester

import (
	"net/http"
)

// FileField is the multipart field the processing service reads the upload from
const FileField = "file"

// Upload is a file received from the browser, fully buffered
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Response represents the processing service's answer
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// ContentType returns the declared content type of the answer, or fallback
func (r *Response) ContentType(fallback string) string {
	if ct := r.Headers.Get("Content-Type"); ct != "" {
		return ct
	}
	return fallback
}
