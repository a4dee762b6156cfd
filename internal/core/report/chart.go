package report

import (
	"strings"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/aggregate"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
)

const (
	ChartBar = "barras"
	ChartPie = "pizza"
)

// ChartData monta o payload de gráfico com os n primeiros grupos: barras com a soma
// na visão total, pizza com o percentual na visão de participação.
func ChartData(res domain.AggregationResult, n int) domain.ChartSeries {
	top := aggregate.Top(res, n)
	out := domain.ChartSeries{
		Tipo:   ChartBar,
		Labels: make([]string, 0, len(top.Grupos)),
		Values: make([]float64, 0, len(top.Grupos)),
	}
	if res.Visao == domain.ViewParticipation {
		out.Tipo = ChartPie
	}
	for _, g := range top.Grupos {
		out.Labels = append(out.Labels, aggregate.Label(g))
		if out.Tipo == ChartPie {
			out.Values = append(out.Values, g.Percentual)
		} else {
			out.Values = append(out.Values, g.Valor)
		}
	}
	return out
}

func chartTitle(res domain.AggregationResult) string {
	by := strings.Join(res.Chaves, " e ")
	if res.Visao == domain.ViewParticipation {
		return "Participação (%) por " + by
	}
	return res.Medida + " por " + by
}
