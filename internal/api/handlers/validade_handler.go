// internal/api/handlers/validade_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/LuisEduardoPedra/perdasValidade/internal/api/responses"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/filter"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/report"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/gin-gonic/gin"
)

// ValidadeHandler gera o relatório de produtos próximos do vencimento.
type ValidadeHandler struct {
	loader *SourceLoader
}

// NewValidadeHandler cria um novo handler de validade.
func NewValidadeHandler(loader *SourceLoader) *ValidadeHandler {
	return &ValidadeHandler{loader: loader}
}

// HandleRelatorio filtra a planilha e devolve o resultado em json, csv, xlsx ou pdf.
func (h *ValidadeHandler) HandleRelatorio(c *gin.Context) {
	t, src, err := h.loader.Load(c)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	saida, err := formato(c, "json", "csv", "xlsx", "pdf")
	if err != nil {
		responses.FromError(c, err)
		return
	}
	s, _ := table.Resolve(t, nil, table.AllRoles...)
	if s.Has(table.RoleValidade) {
		if t, err = filter.PrepareDates(t, s.Column(table.RoleValidade)); err != nil {
			responses.FromError(c, err)
			return
		}
	}

	spec, err := parseFilter(c, t, s)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	out, err := filter.Apply(t, spec)
	if err != nil {
		responses.FromError(c, err)
		return
	}

	switch saida {
	case "csv":
		data, err := report.CSV(out, report.CSVOptions{})
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Erro ao gerar CSV", err.Error())
			return
		}
		sendFile(c, "Validade", "csv", report.ContentTypeCSV, data)
	case "xlsx":
		data, err := report.XLSX(out, "Validade")
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Erro ao gerar planilha", err.Error())
			return
		}
		sendFile(c, "Validade", "xlsx", report.ContentTypeXLSX, data)
	case "pdf":
		titulo := fmt.Sprintf("Relatório de Validade - %s", time.Now().Format(table.DateLayout))
		data, err := report.PDF(out, s, titulo)
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Erro ao gerar PDF", err.Error())
			return
		}
		sendFile(c, "Validade", "pdf", report.ContentTypePDF, data)
	default:
		c.JSON(http.StatusOK, gin.H{
			"fonte":   src,
			"filtros": spec,
			"colunas": out.Columns(),
			"total":   out.Len(),
			"linhas":  rowsAsMaps(out),
		})
	}
}
