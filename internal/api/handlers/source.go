// internal/api/handlers/source.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/ingest"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/gin-gonic/gin"
)

// SourceLoader carrega a planilha da requisição: arquivo enviado no campo "arquivo"
// ou download da URL informada (ou da URL padrão) quando modo=github.
type SourceLoader struct {
	ingest     ingest.Service
	defaultURL string
	maxBytes   int64
}

// NewSourceLoader cria um SourceLoader. maxUploadMB <= 0 desativa o limite de tamanho.
func NewSourceLoader(svc ingest.Service, defaultURL string, maxUploadMB int64) *SourceLoader {
	return &SourceLoader{ingest: svc, defaultURL: defaultURL, maxBytes: maxUploadMB << 20}
}

// Load devolve a tabela e a origem. Erros já vêm no formato do domínio.
func (l *SourceLoader) Load(c *gin.Context) (*table.Table, domain.Source, error) {
	if l.maxBytes > 0 && c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, l.maxBytes)
	}

	modo := domain.SourceMode(strings.ToLower(strings.TrimSpace(c.PostForm("modo"))))
	fileHeader, fileErr := c.FormFile("arquivo")
	if modo == "" {
		modo = domain.SourceRemote
		if fileErr == nil {
			modo = domain.SourceUpload
		}
	}

	switch modo {
	case domain.SourceUpload:
		if fileErr != nil {
			return nil, domain.Source{}, fmt.Errorf("%w: arquivo (.xlsx, .xls ou .csv) não encontrado ou inválido", domain.ErrInvalidRequest)
		}
		f, err := fileHeader.Open()
		if err != nil {
			return nil, domain.Source{}, &domain.SourceError{Origem: fileHeader.Filename, Err: err}
		}
		defer f.Close()

		src := domain.Source{Mode: domain.SourceUpload, Filename: fileHeader.Filename}
		t, err := l.ingest.FromUpload(c.Request.Context(), f, fileHeader.Filename)
		return t, src, err

	case domain.SourceRemote:
		url := strings.TrimSpace(c.PostForm("url"))
		if url == "" {
			url = l.defaultURL
		}
		src := domain.Source{Mode: domain.SourceRemote, URL: url}
		t, err := l.ingest.FromURL(c.Request.Context(), url)
		return t, src, err
	}
	return nil, domain.Source{}, fmt.Errorf("%w: modo desconhecido %q (use upload ou github)", domain.ErrInvalidRequest, modo)
}
