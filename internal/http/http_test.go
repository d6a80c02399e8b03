package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/rotavault/internal/config"
	cryptoHTTP "github.com/allisson/rotavault/internal/crypto/http"
	cryptoRepository "github.com/allisson/rotavault/internal/crypto/repository"
	cryptoService "github.com/allisson/rotavault/internal/crypto/service"
	cryptoUseCase "github.com/allisson/rotavault/internal/crypto/usecase"
	"github.com/allisson/rotavault/internal/database"
	"github.com/allisson/rotavault/internal/metrics"
	secretsHTTP "github.com/allisson/rotavault/internal/secrets/http"
	secretsRepository "github.com/allisson/rotavault/internal/secrets/repository"
	secretsUseCase "github.com/allisson/rotavault/internal/secrets/usecase"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// createTestServer creates a test server with a discarding logger.
func createTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(nil, "localhost", 8080, logger)
}

// TestHealthHandler tests the health check endpoint handler.
func TestHealthHandler(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "healthy", response["status"])
}

// TestReadinessHandler_NotReady_NilDB tests the readiness endpoint when DB is nil.
func TestReadinessHandler_NotReady_NilDB(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "not_ready", response["status"])

	components, ok := response["components"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "error", components["database"])
}

// TestReadinessHandler_Skipped tests readiness when the database check is disabled.
func TestReadinessHandler_Skipped(t *testing.T) {
	server := createTestServer()
	server.SkipDatabaseCheck()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ready", response["status"])
	assert.Equal(t, "skipped", response["components"].(map[string]interface{})["database"])
}

// TestReadinessHandler_DatabasePing tests readiness against a pinged database.
func TestReadinessHandler_DatabasePing(t *testing.T) {
	tests := []struct {
		name          string
		pingErr       error
		wantCode      int
		wantStatus    string
		wantComponent string
	}{
		{name: "ping ok", wantCode: http.StatusOK, wantStatus: "ready", wantComponent: "ok"},
		{
			name:          "ping fails",
			pingErr:       errors.New("connection refused"),
			wantCode:      http.StatusServiceUnavailable,
			wantStatus:    "not_ready",
			wantComponent: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			mock.ExpectPing().WillReturnError(tt.pingErr)

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			server := NewServer(db, "localhost", 8080, logger)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

			server.readinessHandler(c)

			assert.Equal(t, tt.wantCode, w.Code)
			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantStatus, response["status"])
			assert.Equal(t, tt.wantComponent, response["components"].(map[string]interface{})["database"])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCustomLoggerMiddleware(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{status: http.StatusOK, wantLevel: "INFO"},
		{status: http.StatusNotFound, wantLevel: "WARN"},
		{status: http.StatusInternalServerError, wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.wantLevel, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			router := gin.New()
			router.Use(requestid.New())
			router.Use(CustomLoggerMiddleware(logger))
			router.GET("/v1/secrets/:name", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/secrets/db-password", nil))
			require.Equal(t, tt.status, w.Code)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "http request", entry["msg"])
			assert.Equal(t, "/v1/secrets/db-password", entry["path"])
			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, w.Header().Get("X-Request-Id"), entry["request_id"])
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/panic", func(c *gin.Context) {
		panic("decrypt exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestSetupRouter_RequestID(t *testing.T) {
	handler := setupFullServer(t, &config.Config{}).GetHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	id, err := uuid.Parse(w.Header().Get("X-Request-Id"))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "caller-supplied")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "caller-supplied", w.Header().Get("X-Request-Id"))
}

func TestServer_StartShutdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(nil, "127.0.0.1", 0, logger)
	server.router = gin.New()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(context.Background())
	}()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetricsServer_Endpoints(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider, err := metrics.NewProvider("rv")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), "rv")
	require.NoError(t, err)
	bm.RecordKeyVersion(context.Background(), 2)

	handler := NewMetricsServer("localhost", 8081, logger, provider).GetHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "rv_current_key_version")

	code, _ := serve(t, handler, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/secrets", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// setupFullServer wires the API server on in-memory repositories.
func setupFullServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	keyUseCase := cryptoUseCase.NewKeyUseCase(
		database.NewNopTxManager(),
		cryptoRepository.NewMemoryKeyVersionRepository(),
		1,
		clock.WallClock,
		logger,
		cryptoService.WithKeyDeriver(cryptoService.NewArgon2KDF(cryptoService.KDFParams{
			Time:      1,
			MemoryKiB: 64,
			Threads:   1,
		})),
	)
	manager, err := keyUseCase.Load(ctx, []byte("router-test-passphrase"))
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	secretManager := secretsUseCase.NewSecretManager(
		manager,
		secretsRepository.NewMemorySecretRepository(),
		clock.WallClock,
		logger,
	)

	server := NewServer(nil, "localhost", 8080, logger)
	server.SkipDatabaseCheck()
	server.SetupRouter(
		ctx,
		cfg,
		secretsHTTP.NewSecretHandler(secretManager, manager, logger),
		cryptoHTTP.NewKeyHandler(keyUseCase, manager, logger),
		nil,
	)
	return server
}

func serve(t *testing.T, handler http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var response map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w.Code, response
}

// TestSetupRouter_RotationFlow stores a secret, rotates the key and migrates through the API.
func TestSetupRouter_RotationFlow(t *testing.T) {
	server := setupFullServer(t, &config.Config{MetricsNamespace: "test"})
	handler := server.GetHandler()
	require.NotNil(t, handler)

	code, body := serve(t, handler, http.MethodPut, "/v1/secrets/db-password", `{"value":"aHVudGVyMg=="}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["version"])

	code, body = serve(t, handler, http.MethodPost, "/v1/keys/rotate", `{"version":2}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["rotated"])
	assert.Equal(t, float64(2), body["current_version"])

	code, body = serve(t, handler, http.MethodPost, "/v1/keys/rotate", `{"version":2}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", body["error"])

	code, body = serve(t, handler, http.MethodGet, "/v1/secrets", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["needs_migration"])

	code, body = serve(t, handler, http.MethodPost, "/v1/secrets/migrate", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["target_version"])
	assert.Equal(t, float64(1), body["migrated"])

	code, body = serve(t, handler, http.MethodGet, "/v1/secrets/db-password", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "aHVudGVyMg==", body["value"])
	assert.Equal(t, float64(2), body["version"])

	code, body = serve(t, handler, http.MethodGet, "/v1/keys", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{float64(1), float64(2)}, body["available_versions"])

	code, _ = serve(t, handler, http.MethodGet, "/v1/secrets/missing", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = serve(t, handler, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
}

// TestSetupRouter_RateLimited tests that the rate limiter guards the v1 routes only.
func TestSetupRouter_RateLimited(t *testing.T) {
	server := setupFullServer(t, &config.Config{
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 0.001,
		RateLimitBurst:          1,
	})
	handler := server.GetHandler()

	code, _ := serve(t, handler, http.MethodGet, "/v1/keys", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = serve(t, handler, http.MethodGet, "/v1/keys", "")
	assert.Equal(t, http.StatusTooManyRequests, code)

	code, _ = serve(t, handler, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
}

// TestServer_NoMetricsEndpoint tests that the API server does not expose /metrics.
func TestServer_NoMetricsEndpoint(t *testing.T) {
	server := setupFullServer(t, &config.Config{})

	code, _ := serve(t, server.GetHandler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, code)
}
