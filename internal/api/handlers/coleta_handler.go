// internal/api/handlers/coleta_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/LuisEduardoPedra/perdasValidade/internal/api/responses"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/coleta"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/report"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/gin-gonic/gin"
)

// ColetaHandler atende a tela de coleta de validade.
type ColetaHandler struct {
	loader  *SourceLoader
	service coleta.Service
}

// NewColetaHandler cria um novo handler de coleta.
func NewColetaHandler(loader *SourceLoader, service coleta.Service) *ColetaHandler {
	return &ColetaHandler{loader: loader, service: service}
}

// ColetaRequest é o corpo do POST /coleta. Modo e Arquivo indicam a planilha de origem,
// que define onde o arquivo de coleta é gravado.
type ColetaRequest struct {
	Modo          string `json:"modo"`
	Arquivo       string `json:"arquivo"`
	Mercadologico string `json:"mercadologico"`
	CodigoBarras  string `json:"codigo_barras"`
	Descricao     string `json:"descricao"`
	DataValidade  string `json:"data_validade"`
	Lote          string `json:"lote"`
}

func (r ColetaRequest) source() domain.Source {
	if domain.SourceMode(strings.ToLower(r.Modo)) == domain.SourceUpload {
		return domain.Source{Mode: domain.SourceUpload, Filename: r.Arquivo}
	}
	return domain.Source{Mode: domain.SourceRemote}
}

// HandleProduto procura a descrição do produto pelo código de barras.
// Produto não encontrado é um aviso, não um erro.
func (h *ColetaHandler) HandleProduto(c *gin.Context) {
	t, _, err := h.loader.Load(c)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	codigo := formValue(c, "codigo")
	if codigo == "" {
		responses.Error(c, http.StatusBadRequest, "Informe o código de barras")
		return
	}
	desc, found, err := h.service.Lookup(t, codigo)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	body := gin.H{"codigo": codigo, "encontrado": found, "descricao": desc}
	if !found {
		body["aviso"] = "Produto não encontrado"
	}
	c.JSON(http.StatusOK, body)
}

// HandleSalvar registra uma coleta. Com campos obrigatórios em branco nada é gravado
// e a entrada volta na resposta para ser corrigida.
func (h *ColetaHandler) HandleSalvar(c *gin.Context) {
	var req ColetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Corpo da requisição inválido", err.Error())
		return
	}

	entry := domain.ColetaEntry{
		Mercadologico: req.Mercadologico,
		CodigoBarras:  req.CodigoBarras,
		Descricao:     req.Descricao,
		Lote:          req.Lote,
	}
	if v := strings.TrimSpace(req.DataValidade); v != "" {
		d, ok := table.ParseDate(v)
		if !ok {
			responses.Error(c, http.StatusBadRequest, "Data de validade inválida", v)
			return
		}
		entry.DataValidade = d
	}

	rec, err := h.service.Save(c.Request.Context(), req.source(), entry)
	var inc *domain.IncompleteFormError
	if errors.As(err, &inc) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":   domain.ErrIncompleteForm.Error(),
			"details": inc.Campos,
			"entrada": req,
		})
		return
	}
	if err != nil {
		responses.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"mensagem": "Coleta salva com sucesso", "registro": rec})
}

// HandleExportar devolve o arquivo de coleta em csv, xlsx ou pdf.
func (h *ColetaHandler) HandleExportar(c *gin.Context) {
	saida, err := formato(c, "csv", "xlsx", "pdf")
	if err != nil {
		responses.FromError(c, err)
		return
	}
	req := ColetaRequest{Modo: c.Query("modo"), Arquivo: c.Query("arquivo")}
	t, err := h.service.List(c.Request.Context(), req.source())
	if err != nil {
		responses.FromError(c, err)
		return
	}

	switch saida {
	case "xlsx":
		data, err := report.XLSX(t, "Coleta")
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Erro ao gerar planilha", err.Error())
			return
		}
		sendFile(c, "Coleta", "xlsx", report.ContentTypeXLSX, data)
	case "pdf":
		s, _ := table.Resolve(t, nil, table.AllRoles...)
		data, err := report.PDF(t, s, "Coleta de Validade")
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Erro ao gerar PDF", err.Error())
			return
		}
		sendFile(c, "Coleta", "pdf", report.ContentTypePDF, data)
	default:
		data, err := report.CSV(t, report.CSVOptions{})
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Erro ao gerar CSV", err.Error())
			return
		}
		sendFile(c, "Coleta", "csv", report.ContentTypeCSV, data)
	}
}
