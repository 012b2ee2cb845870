package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"ev-service-center/report-service/report-service-backend/internal/auth"
)

func newTestRouter(service *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	// stand-in for the auth middleware
	router.Use(func(c *gin.Context) {
		c.Set(auth.ContextUserID, "admin-1")
		c.Set(auth.ContextRole, "admin")
	})

	handler := NewHandler(service, zap.NewNop())
	api := router.Group("/api")
	handler.RegisterRoutes(api)
	return router
}

func completingService(repo Repository) *Service {
	strategies := map[ReportType]StrategyFunc{
		ReportTypeSalesSummary: fixedStrategy(JSONB{"totalSalesAmount": 150.0}, nil),
	}
	return NewService(repo, strategies, zap.NewNop(), true)
}

func TestCreateReportEndpoint(t *testing.T) {
	router := newTestRouter(completingService(newMemoryRepository()))

	req := httptest.NewRequest("POST", "/api/reports/", strings.NewReader(`{"reportType":"sales_summary"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "sales_summary", body["reportType"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "admin-1", body["requestedById"])
	assert.NotNil(t, body["reportData"])
	assert.Nil(t, body["errorMessage"])
	assert.NotNil(t, body["generatedAt"])
}

func TestCreateReportEndpointInvalidType(t *testing.T) {
	repo := newMemoryRepository()
	router := newTestRouter(completingService(repo))

	req := httptest.NewRequest("POST", "/api/reports/", strings.NewReader(`{"reportType":"weekly_magic"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.records)
}

func TestCreateReportEndpointMissingType(t *testing.T) {
	router := newTestRouter(completingService(newMemoryRepository()))

	req := httptest.NewRequest("POST", "/api/reports/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListReportsEndpoint(t *testing.T) {
	repo := newMemoryRepository()
	service := completingService(repo)
	router := newTestRouter(service)

	_, err := service.RequestNewReport(context.Background(), "admin-1", ReportTypeSalesSummary)
	assert.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/reports/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body []map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body, 1)
}

func TestGetReportEndpointNotFound(t *testing.T) {
	router := newTestRouter(completingService(newMemoryRepository()))

	req := httptest.NewRequest("GET", "/api/reports/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReportEndpointInvalidID(t *testing.T) {
	router := newTestRouter(completingService(newMemoryRepository()))

	req := httptest.NewRequest("GET", "/api/reports/42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegenerateEndpoint(t *testing.T) {
	repo := newMemoryRepository()
	service := completingService(repo)
	router := newTestRouter(service)

	created, err := service.RequestNewReport(context.Background(), "admin-0", ReportTypeSalesSummary)
	assert.NoError(t, err)

	req := httptest.NewRequest("PUT", "/api/reports/"+created.ID.String()+"/regenerate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, created.ID.String(), body["id"])
	assert.Equal(t, "admin-1", body["requestedById"])
}

func TestRegenerateEndpointNotFound(t *testing.T) {
	router := newTestRouter(completingService(newMemoryRepository()))

	req := httptest.NewRequest("PUT", "/api/reports/"+uuid.NewString()+"/regenerate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
