// Package aggregate agrupa uma tabela por uma ou duas colunas e soma uma medida,
// com participação percentual opcional sobre o total geral.
package aggregate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// DefaultTop é o número de grupos exibidos nos gráficos.
const DefaultTop = 20

// ColLinhas é a coluna com a quantidade de linhas de cada grupo nas exportações.
const ColLinhas = "Linhas"

const (
	colGrupo  = "__grupo"
	colValor  = "__valor"
	colLinhas = "__linhas"
)

// Sum agrupa por keys e soma measure, do maior para o menor.
func Sum(t *table.Table, keys []string, measure string) (domain.AggregationResult, error) {
	return aggregate(t, keys, measure, domain.ViewTotal)
}

// Participation agrupa como Sum e calcula o percentual de cada grupo sobre o total geral
// da tabela já filtrada.
func Participation(t *table.Table, keys []string, measure string) (domain.AggregationResult, error) {
	return aggregate(t, keys, measure, domain.ViewParticipation)
}

// Run escolhe Sum ou Participation pela visão.
func Run(t *table.Table, keys []string, measure string, view domain.ViewKind) (domain.AggregationResult, error) {
	switch view {
	case domain.ViewTotal, "":
		return Sum(t, keys, measure)
	case domain.ViewParticipation:
		return Participation(t, keys, measure)
	}
	return domain.AggregationResult{}, fmt.Errorf("%w: visão desconhecida %q", domain.ErrInvalidRequest, view)
}

func aggregate(t *table.Table, keys []string, measure string, view domain.ViewKind) (domain.AggregationResult, error) {
	res := domain.AggregationResult{Visao: view, Chaves: append([]string{}, keys...), Medida: measure, Grupos: []domain.GroupRow{}}

	if len(keys) < 1 || len(keys) > 2 {
		return res, fmt.Errorf("%w: agrupe por uma ou duas colunas (recebido %d)", domain.ErrInvalidRequest, len(keys))
	}
	if len(keys) == 2 && keys[0] == keys[1] {
		return res, fmt.Errorf("%w: colunas de agrupamento repetidas", domain.ErrInvalidRequest)
	}
	if err := t.RequireColumns(append(append([]string{}, keys...), measure)...); err != nil {
		return res, err
	}

	keyCols := make([]table.Column, len(keys))
	for k, name := range keys {
		keyCols[k], _ = t.Column(name)
	}
	measureCol, _ := t.Column(measure)

	// Cada combinação de chaves vira um identificador, para que o GroupBy não dependa
	// de separadores dentro dos próprios valores.
	tupleIDs := make(map[string]string)
	tuples := make(map[string][]string)
	var ids []string
	var valores, linhas []float64

rows:
	for i := 0; i < t.Len(); i++ {
		tuple := make([]string, len(keyCols))
		for k, c := range keyCols {
			v, ok := c.Text(i)
			if !ok {
				continue rows
			}
			tuple[k] = v
		}
		tk := strings.Join(tuple, "\x00")
		id, ok := tupleIDs[tk]
		if !ok {
			id = "g" + strconv.Itoa(len(tupleIDs))
			tupleIDs[tk] = id
			tuples[id] = tuple
		}
		v, _ := measureCol.Number(i)
		ids = append(ids, id)
		valores = append(valores, v)
		linhas = append(linhas, 1)
	}

	if len(ids) == 0 {
		res.TotalZero = true
		return res, nil
	}

	df := dataframe.New(
		series.New(ids, series.String, colGrupo),
		series.New(valores, series.Float, colValor),
		series.New(linhas, series.Float, colLinhas),
	)
	if df.Err != nil {
		return res, fmt.Errorf("erro ao preparar agrupamento: %w", df.Err)
	}
	groups := df.GroupBy(colGrupo)
	if groups.Err != nil {
		return res, fmt.Errorf("erro ao agrupar: %w", groups.Err)
	}
	out := groups.Aggregation(
		[]dataframe.AggregationType{dataframe.Aggregation_SUM, dataframe.Aggregation_SUM},
		[]string{colValor, colLinhas},
	)
	if out.Err != nil {
		return res, fmt.Errorf("erro ao agregar: %w", out.Err)
	}

	var nameValor, nameLinhas string
	for _, n := range out.Names() {
		switch {
		case strings.HasPrefix(n, colValor):
			nameValor = n
		case strings.HasPrefix(n, colLinhas):
			nameLinhas = n
		}
	}
	if nameValor == "" || nameLinhas == "" || !contains(out.Names(), colGrupo) {
		return res, fmt.Errorf("erro ao agregar: colunas inesperadas %v", out.Names())
	}

	gids := out.Col(colGrupo).Records()
	somas := out.Col(nameValor).Float()
	contagens := out.Col(nameLinhas).Float()

	for i, id := range gids {
		res.Grupos = append(res.Grupos, domain.GroupRow{
			Chaves: tuples[id],
			Valor:  somas[i],
			Linhas: int(contagens[i]),
		})
	}
	// O total geral vem das linhas, não dos grupos, para não acumular erro de arredondamento.
	for _, v := range valores {
		res.TotalGeral += v
	}

	res.TotalZero = res.TotalGeral == 0
	if view == domain.ViewParticipation && !res.TotalZero {
		for i := range res.Grupos {
			res.Grupos[i].Percentual = res.Grupos[i].Valor / res.TotalGeral * 100
		}
	}

	sortGroups(res.Grupos, view)
	return res, nil
}

func sortGroups(grupos []domain.GroupRow, view domain.ViewKind) {
	sort.SliceStable(grupos, func(i, j int) bool {
		a, b := grupos[i], grupos[j]
		if view == domain.ViewParticipation && a.Percentual != b.Percentual {
			return a.Percentual > b.Percentual
		}
		if a.Valor != b.Valor {
			return a.Valor > b.Valor
		}
		return Label(a) < Label(b)
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Top devolve os n primeiros grupos. n <= 0 usa DefaultTop.
func Top(res domain.AggregationResult, n int) domain.AggregationResult {
	if n <= 0 {
		n = DefaultTop
	}
	if len(res.Grupos) > n {
		res.Grupos = res.Grupos[:n]
	}
	return res
}

// Label junta as chaves do grupo para exibição.
func Label(g domain.GroupRow) string {
	return strings.Join(g.Chaves, " / ")
}

// Columns devolve o cabeçalho usado nas exportações do resultado.
func Columns(res domain.AggregationResult) []string {
	cols := append([]string{}, res.Chaves...)
	cols = append(cols, res.Medida, ColLinhas)
	if res.Visao == domain.ViewParticipation {
		cols = append(cols, domain.ColPartici)
	}
	return cols
}

// ToTable converte o resultado em tabela, no formato das exportações.
func ToTable(res domain.AggregationResult) (*table.Table, error) {
	rows := make([][]string, len(res.Grupos))
	for i, g := range res.Grupos {
		row := append([]string{}, g.Chaves...)
		row = append(row, strconv.FormatFloat(g.Valor, 'f', 2, 64), strconv.Itoa(g.Linhas))
		if res.Visao == domain.ViewParticipation {
			row = append(row, strconv.FormatFloat(g.Percentual, 'f', 2, 64))
		}
		rows[i] = row
	}
	return table.New(Columns(res), rows)
}
