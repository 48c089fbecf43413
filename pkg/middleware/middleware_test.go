package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/errors"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mapper ErrorMapper) *gin.Engine {
	router := gin.New()
	cfg := DefaultConfig("shipping-test", logging.NewNop())
	cfg.ErrorMapper = mapper
	cfg.Metrics = metrics.New(metrics.DefaultConfig("shipping-test"))
	Setup(router, cfg)
	return router
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()
	var resp APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRequestAndCorrelationIDs(t *testing.T) {
	router := newRouter(nil)
	var seenCorrelation, seenUser string
	router.GET("/ping", func(c *gin.Context) {
		seenCorrelation = logging.CorrelationIDFromContext(c.Request.Context())
		seenUser, _ = c.Request.Context().Value(logging.UserIDKey).(string)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderCorrelationID, "corr-1")
	req.Header.Set(HeaderUserID, " user-7 ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, "corr-1", w.Header().Get(HeaderCorrelationID))
	assert.Equal(t, "corr-1", seenCorrelation)
	assert.Equal(t, "user-7", seenUser)
}

func TestErrorHandler_UsesMapper(t *testing.T) {
	sentinel := stderrors.New("order gone")
	router := newRouter(func(err error) *errors.AppError {
		if stderrors.Is(err, sentinel) {
			return errors.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound)
		}
		return errors.FromError(err)
	})
	router.GET("/orders/:orderId", func(c *gin.Context) {
		_ = c.Error(sentinel)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/1", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "ORDER_NOT_FOUND", resp.Code)
	assert.Equal(t, "/orders/1", resp.Path)
	assert.NotEmpty(t, resp.RequestID)
}

func TestRecovery(t *testing.T) {
	router := newRouter(nil)
	router.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.CodeInternalError, decodeError(t, w).Code)
}

func TestNoRouteAndNoMethod(t *testing.T) {
	router := newRouter(nil)
	router.GET("/only-get", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decodeError(t, w).Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/only-get", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

type addressBody struct {
	Country    string `json:"country" binding:"required,country_code"`
	PostalCode string `json:"postalCode" binding:"required,postal_code"`
}

type shipmentBody struct {
	ServiceLevelCode string      `json:"serviceLevelCode" binding:"required,service_level"`
	Address          addressBody `json:"address" binding:"required"`
}

func TestBindAndValidate(t *testing.T) {
	router := newRouter(nil)
	router.POST("/validate", func(c *gin.Context) {
		var body shipmentBody
		if appErr := BindAndValidate(c, &body); appErr != nil {
			AbortWithAppError(c, appErr)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		body   string
		status int
		fields map[string]string
	}{
		{
			name:   "valid",
			body:   `{"serviceLevelCode":"ECO","address":{"country":"ZA","postalCode":"8001"}}`,
			status: http.StatusOK,
		},
		{
			name:   "bad codes",
			body:   `{"serviceLevelCode":"E","address":{"country":"za","postalCode":"8001"}}`,
			status: http.StatusBadRequest,
			fields: map[string]string{
				"serviceLevelCode": "must be a carrier service level code",
				"address.country":  "must be an ISO 3166-1 alpha-2 country code",
			},
		},
		{
			name:   "malformed json",
			body:   `{"serviceLevelCode":`,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.fields != nil {
				resp := decodeError(t, w)
				assert.Equal(t, errors.CodeValidationError, resp.Code)
				assert.Equal(t, tt.fields, resp.Details)
			}
		})
	}
}

func TestReadinessCheck(t *testing.T) {
	router := gin.New()
	ready := false
	router.GET("/ready", ReadinessCheck("shipping", func(ctx context.Context) error {
		if !ready {
			return stderrors.New("mongo unreachable")
		}
		return nil
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ready = true
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_SpanPerRoute(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	cfg := DefaultTracingConfig("shipping-test")
	cfg.Tracer = provider.Tracer("test")
	cfg.SkipPaths = []string{"/health"}

	router := gin.New()
	router.Use(Tracing(cfg))
	var seenTraceID string
	router.GET("/orders/:orderId/tracking", func(c *gin.Context) {
		seenTraceID = c.GetString(ContextKeyTraceID)
		c.Status(http.StatusBadGateway)
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/ord-1/tracking", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /orders/:orderId/tracking", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), seenTraceID)
}
