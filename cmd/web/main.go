// cmd/web/main.go
package main

import (
	"github.com/LuisEduardoPedra/perdasValidade/internal/api"
	"github.com/LuisEduardoPedra/perdasValidade/internal/api/responses"
	"github.com/LuisEduardoPedra/perdasValidade/internal/config"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/coleta"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/ingest"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	log := responses.InitLogger()
	defer log.Sync()
	if err != nil {
		log.Fatal("Configuração inválida", zap.Error(err))
	}
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	services := api.Services{
		Ingest: ingest.NewService(log.Named("ingest"), cfg.FetchTimeout),
		Coleta: coleta.NewService(log.Named("coleta"), cfg.ColetaDir, cfg.ColetaArquivo),
	}
	router := api.NewRouter(cfg, services, log)

	log.Info("🚀 Servidor iniciado e escutando",
		zap.String("porta", cfg.Port),
		zap.String("fonte_padrao", cfg.FonteURL),
		zap.Duration("fetch_timeout", cfg.FetchTimeout))

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Falha ao iniciar o servidor", zap.Error(err))
	}
}
