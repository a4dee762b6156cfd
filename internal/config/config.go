// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultFonteURL é a planilha de produtos usada quando o modo remoto não informa outra URL.
const DefaultFonteURL = "https://raw.githubusercontent.com/Filipe-Ambrozio/perdas_moab/main/Consulta_de_Produto_ATUAL.xlsx"

// Config reúne as configurações lidas do ambiente.
type Config struct {
	Port          string
	Env           string
	FonteURL      string
	ColetaArquivo string
	ColetaDir     string
	FetchTimeout  time.Duration
	TopN          int
	MaxUploadMB   int64
}

// Development informa se o ambiente é de desenvolvimento.
func (c Config) Development() bool {
	return c.Env == "development"
}

// Load lê o arquivo .env (se existir) e depois as variáveis de ambiente.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return Config{}, fmt.Errorf("erro ao carregar %s: %w", f, err)
			}
		}
	}

	cfg := Config{
		Port:          getenv("PORT", "8080"),
		Env:           getenv("APP_ENV", "production"),
		FonteURL:      getenv("FONTE_URL", DefaultFonteURL),
		ColetaArquivo: getenv("COLETA_ARQUIVO", "coleta_validade.csv"),
		ColetaDir:     getenv("COLETA_DIR", "."),
	}

	var err error
	if cfg.FetchTimeout, err = time.ParseDuration(getenv("FETCH_TIMEOUT", "60s")); err != nil {
		return Config{}, fmt.Errorf("FETCH_TIMEOUT inválido: %w", err)
	}
	if cfg.TopN, err = strconv.Atoi(getenv("TOP_N", "20")); err != nil || cfg.TopN <= 0 {
		return Config{}, fmt.Errorf("TOP_N inválido: %q", os.Getenv("TOP_N"))
	}
	if cfg.MaxUploadMB, err = strconv.ParseInt(getenv("MAX_UPLOAD_MB", "32"), 10, 64); err != nil || cfg.MaxUploadMB <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_MB inválido: %q", os.Getenv("MAX_UPLOAD_MB"))
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
