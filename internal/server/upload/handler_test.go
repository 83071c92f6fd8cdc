package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brizzai/auth-gateway/internal/artifact"
	"github.com/brizzai/auth-gateway/internal/auth/constants"
	"github.com/brizzai/auth-gateway/internal/auth/middleware"
	"github.com/brizzai/auth-gateway/internal/auth/models"
	"github.com/brizzai/auth-gateway/internal/config"
	"github.com/brizzai/auth-gateway/internal/metrics"
	"github.com/brizzai/auth-gateway/internal/requester"
	"github.com/brizzai/auth-gateway/internal/session"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const artifactDir = "/tmp/artifacts"

type proxyEnv struct {
	handler    http.Handler
	manager    *session.Manager
	fs         afero.Fs
	downstream *httptest.Server
	calls      atomic.Int32
	mu         sync.Mutex
	received   []byte
	respond    func(w http.ResponseWriter, r *http.Request)
}

func newProxyEnv(t *testing.T) *proxyEnv {
	t.Helper()
	env := &proxyEnv{fs: afero.NewMemMapFs()}
	require.NoError(t, env.fs.MkdirAll(artifactDir, 0o755))

	env.downstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.calls.Add(1)
		if file, _, err := r.FormFile("file"); err == nil {
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(file)
			env.mu.Lock()
			env.received = buf.Bytes()
			env.mu.Unlock()
			_ = file.Close()
		}
		env.respond(w, r)
	}))
	t.Cleanup(env.downstream.Close)

	env.respond = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}

	codec, err := session.NewCodec("secret", time.Hour)
	require.NoError(t, err)
	env.manager = session.NewManager(session.NewMemoryStore(time.Hour), codec, &config.SessionConfig{
		CookieName: "session",
		TTL:        time.Hour,
	})

	fwd := requester.NewHTTPRequester(requester.HTTPRequesterParams{
		ProcessingConfig: &config.ProcessingConfig{BaseURL: env.downstream.URL, Path: "/predict-file"},
		AuthManager:      requester.NewHTTPAuthManager(&config.ProcessingConfig{}),
	})
	h := NewHandler(HandlerParams{
		Forwarder: fwd,
		Artifacts: artifact.NewStore(env.fs, artifactDir),
		Config: &config.UploadConfig{
			MaxMemory:    32 << 20,
			FieldName:    "file",
			ArtifactName: "prediction_output.csv",
			ArtifactType: "text/csv",
		},
		Metrics: metrics.New(Path),
	})
	env.handler = middleware.RequireSession(env.manager, constants.UnauthorizedMessage)(h)
	return env
}

func (e *proxyEnv) login(t *testing.T) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := e.manager.Issue(context.Background(), rec, models.Profile{Email: models.StringPtr("ada@example.com")})
	require.NoError(t, err)
	return rec.Result().Cookies()
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, writer.WriteField("comment", "no file here"))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, Path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func (e *proxyEnv) serve(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUploadRequiresSession(t *testing.T) {
	env := newProxyEnv(t)

	for name, cookies := range map[string][]*http.Cookie{
		"no cookie":     nil,
		"forged cookie": {{Name: "session", Value: "forged"}},
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.serve(multipartRequest(t, "file", "in.csv", []byte("x")), cookies)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Unauthorized", errorBody(t, rec)["error"])
		})
	}
	assert.Equal(t, int32(0), env.calls.Load(), "processing service must not be contacted")
}

func TestUploadMissingFile(t *testing.T) {
	env := newProxyEnv(t)
	cookies := env.login(t)

	t.Run("multipart without file part", func(t *testing.T) {
		rec := env.serve(multipartRequest(t, "", "", nil), cookies)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No file provided", errorBody(t, rec)["error"])
	})

	t.Run("file under another field", func(t *testing.T) {
		rec := env.serve(multipartRequest(t, "document", "in.csv", []byte("x")), cookies)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, Path, bytes.NewBufferString(`{"file":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := env.serve(req, cookies)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	assert.Equal(t, int32(0), env.calls.Load(), "processing service must not be contacted")
}

func TestUploadForwardsBytesOnce(t *testing.T) {
	env := newProxyEnv(t)
	payload := []byte("id,value\n1,\x00\xff\n2,binary\r\n")

	rec := env.serve(multipartRequest(t, "file", "input.csv", payload), env.login(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), env.calls.Load())
	env.mu.Lock()
	defer env.mu.Unlock()
	assert.Equal(t, payload, env.received)
}

func TestUploadSuccessReturnsAttachment(t *testing.T) {
	env := newProxyEnv(t)

	rec := env.serve(multipartRequest(t, "file", "input.csv", []byte("x")), env.login(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=prediction_output.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n1,2\n", rec.Body.String())

	// the temporary artifact does not outlive the response
	entries, err := afero.ReadDir(env.fs, artifactDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadPassthrough(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantType    string
	}{
		{
			name:        "json error",
			status:      http.StatusUnprocessableEntity,
			contentType: "application/json",
			body:        `{"error":"bad format"}`,
			wantType:    "application/json",
		},
		{
			name:     "no content type",
			status:   http.StatusInternalServerError,
			body:     "model crashed",
			wantType: "text/plain",
		},
		{
			name:        "non-200 success status",
			status:      http.StatusAccepted,
			contentType: "text/plain; charset=utf-8",
			body:        "queued",
			wantType:    "text/plain; charset=utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newProxyEnv(t)
			env.respond = func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				} else {
					// keep net/http from sniffing one
					w.Header()["Content-Type"] = nil
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}

			rec := env.serve(multipartRequest(t, "file", "in.csv", []byte("x")), env.login(t))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
		})
	}
}

func TestUploadUpstreamUnreachable(t *testing.T) {
	env := newProxyEnv(t)
	env.downstream.Close()

	rec := env.serve(multipartRequest(t, "file", "in.csv", []byte("x")), env.login(t))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	body := errorBody(t, rec)
	assert.Equal(t, "Microservice connection failed", body["error"])
	assert.NotEmpty(t, body["details"])
}

type panickingForwarder struct{}

func (panickingForwarder) Forward(ctx context.Context, upload *requester.Upload) (*requester.Response, error) {
	panic("boom")
}

func TestUploadRecoversFromPanic(t *testing.T) {
	h := NewHandler(HandlerParams{
		Forwarder: panickingForwarder{},
		Artifacts: artifact.NewStore(afero.NewMemMapFs(), "/tmp"),
		Config:    &config.UploadConfig{MaxMemory: 1 << 20, ArtifactType: "text/csv", ArtifactName: "out.csv"},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "file", "in.csv", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := errorBody(t, rec)
	assert.Equal(t, "Server error", body["error"])
	assert.Contains(t, body["details"], "boom")
}

func TestUploadArtifactFailure(t *testing.T) {
	env := newProxyEnv(t)
	fwd := requester.NewHTTPRequester(requester.HTTPRequesterParams{
		ProcessingConfig: &config.ProcessingConfig{BaseURL: env.downstream.URL, Path: "/predict-file"},
		AuthManager:      requester.NewHTTPAuthManager(&config.ProcessingConfig{}),
	})
	h := NewHandler(HandlerParams{
		Forwarder: fwd,
		Artifacts: artifact.NewStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/tmp"),
		Config:    &config.UploadConfig{MaxMemory: 1 << 20, ArtifactType: "text/csv", ArtifactName: "out.csv"},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "file", "in.csv", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", errorBody(t, rec)["error"])
}

func TestUploadWrongMethod(t *testing.T) {
	env := newProxyEnv(t)

	rec := env.serve(httptest.NewRequest(http.MethodGet, Path, nil), env.login(t))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
