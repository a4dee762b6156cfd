package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LuisEduardoPedra/perdasValidade/internal/api/middleware"
	"github.com/LuisEduardoPedra/perdasValidade/internal/config"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/coleta"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/ingest"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{TopN: 20, MaxUploadMB: 1}
	svc := Services{
		Ingest: ingest.NewService(zap.NewNop(), 0),
		Coleta: coleta.NewService(zap.NewNop(), t.TempDir(), ""),
	}
	return NewRouter(cfg, svc, zap.NewNop())
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	t.Run("Health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != `{"status":"UP"}` {
			t.Errorf("Resposta inesperada: %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Gera request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if len(rec.Header().Get(middleware.RequestIDHeader)) != 36 {
			t.Errorf("Esperava um UUID em %s, obteve %q", middleware.RequestIDHeader, rec.Header().Get(middleware.RequestIDHeader))
		}
	})

	t.Run("Reaproveita request id recebido", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get(middleware.RequestIDHeader); got != "abc-123" {
			t.Errorf("Esperava abc-123, obteve %q", got)
		}
	})

	t.Run("Preflight CORS", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/perdas/relatorio", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("Status esperado 204, obteve %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Cabeçalho CORS ausente")
		}
	})

	t.Run("Exportação da coleta vazia", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/coleta/exportar", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("Status esperado 200, obteve %d: %s", rec.Code, rec.Body.String())
		}
	})
}
