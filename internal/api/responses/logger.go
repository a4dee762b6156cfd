// internal/api/responses/logger.go
package responses

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
)

// InitLogger configura o logger global. APP_ENV=development usa a saída legível do zap.
func InitLogger() *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if os.Getenv("APP_ENV") == "development" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		l = zap.NewExample()
	}
	SetLogger(l)
	return l
}

// SetLogger substitui o logger global.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Logger devolve o logger global, ou um logger mudo se InitLogger não foi chamado.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
