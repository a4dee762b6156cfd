// internal/api/handlers/perdas_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/LuisEduardoPedra/perdasValidade/internal/api/responses"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/aggregate"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/filter"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/report"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/gin-gonic/gin"
)

// PerdasHandler gera o relatório de perdas agrupado, com total ou participação.
type PerdasHandler struct {
	loader *SourceLoader
	topN   int
}

// NewPerdasHandler cria um novo handler de perdas. topN limita os grupos do gráfico.
func NewPerdasHandler(loader *SourceLoader, topN int) *PerdasHandler {
	if topN <= 0 {
		topN = aggregate.DefaultTop
	}
	return &PerdasHandler{loader: loader, topN: topN}
}

// HandleRelatorio aplica os filtros, agrupa por uma ou duas colunas e soma a medida.
func (h *PerdasHandler) HandleRelatorio(c *gin.Context) {
	t, src, err := h.loader.Load(c)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	saida, err := formato(c, "json", "csv", "xlsx")
	if err != nil {
		responses.FromError(c, err)
		return
	}
	s, _ := table.Resolve(t, nil, table.AllRoles...)

	spec, err := parseFilter(c, t, s)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	filtrada, err := filter.Apply(t, spec)
	if err != nil {
		responses.FromError(c, err)
		return
	}

	chaves, medida, err := aggregationParams(c, t, s)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	res, err := aggregate.Run(filtrada, chaves, medida, domain.ViewKind(formValue(c, "visao")))
	if err != nil {
		responses.FromError(c, err)
		return
	}

	switch saida {
	case "csv":
		data, err := report.AggregationCSV(res, report.CSVOptions{})
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Erro ao gerar CSV", err.Error())
			return
		}
		sendFile(c, "Perdas", "csv", report.ContentTypeCSV, data)
	case "xlsx":
		data, err := report.AggregationXLSX(res, true, h.topN)
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Erro ao gerar planilha", err.Error())
			return
		}
		sendFile(c, "Perdas", "xlsx", report.ContentTypeXLSX, data)
	default:
		c.JSON(http.StatusOK, gin.H{
			"fonte":     src,
			"filtros":   spec,
			"linhas":    filtrada.Len(),
			"resultado": res,
			"grafico":   report.ChartData(res, h.topN),
		})
	}
}

// aggregationParams lê agrupar (uma ou duas colunas) e medida. Sem medida, usa a
// coluna de Total e, na falta dela, a de quantidade.
func aggregationParams(c *gin.Context, t *table.Table, s table.Schema) ([]string, string, error) {
	nomes := formValues(c, "agrupar")
	if len(nomes) == 0 {
		return nil, "", fmt.Errorf("%w: informe ao menos uma coluna em agrupar", domain.ErrInvalidRequest)
	}
	chaves := make([]string, 0, len(nomes))
	for _, n := range nomes {
		col, err := resolveColumn(t, s, n)
		if err != nil {
			return nil, "", err
		}
		chaves = append(chaves, col)
	}

	if m := formValue(c, "medida"); m != "" {
		col, err := resolveColumn(t, s, m)
		return chaves, col, err
	}
	for _, r := range []table.Role{table.RoleTotal, table.RoleQuantidade} {
		if s.Has(r) {
			return chaves, s.Column(r), nil
		}
	}
	return nil, "", domain.NewMissingColumnError(string(table.RoleTotal), t.Columns())
}
