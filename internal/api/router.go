// internal/api/router.go
package api

import (
	"github.com/LuisEduardoPedra/perdasValidade/internal/api/handlers"
	"github.com/LuisEduardoPedra/perdasValidade/internal/api/middleware"
	"github.com/LuisEduardoPedra/perdasValidade/internal/config"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/coleta"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/ingest"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services reúne as dependências das rotas.
type Services struct {
	Ingest ingest.Service
	Coleta coleta.Service
}

// NewRouter monta as rotas /api/v1 e /health.
func NewRouter(cfg config.Config, svc Services, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS())
	router.MaxMultipartMemory = cfg.MaxUploadMB << 20

	loader := handlers.NewSourceLoader(svc.Ingest, cfg.FonteURL, cfg.MaxUploadMB)
	tabelaHandler := handlers.NewTabelaHandler(loader)
	validadeHandler := handlers.NewValidadeHandler(loader)
	perdasHandler := handlers.NewPerdasHandler(loader, cfg.TopN)
	coletaHandler := handlers.NewColetaHandler(loader, svc.Coleta)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/tabela/colunas", tabelaHandler.HandleColunas)
		apiV1.POST("/tabela/valores", tabelaHandler.HandleValores)
		apiV1.POST("/validade/relatorio", validadeHandler.HandleRelatorio)
		apiV1.POST("/perdas/relatorio", perdasHandler.HandleRelatorio)
		apiV1.POST("/coleta/produto", coletaHandler.HandleProduto)
		apiV1.POST("/coleta", coletaHandler.HandleSalvar)
		apiV1.GET("/coleta/exportar", coletaHandler.HandleExportar)
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
	return router
}
