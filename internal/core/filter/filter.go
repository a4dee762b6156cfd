// Package filter aplica os filtros de categoria, texto e janela de validade sobre uma tabela.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
)

// Apply mantém as linhas que satisfazem todos os predicados não vazios do FilterSpec.
// Com uma janela de validade, linhas cuja data não pode ser interpretada são descartadas.
func Apply(t *table.Table, spec domain.FilterSpec) (*table.Table, error) {
	var preds []table.Predicate

	for _, col := range sortedKeys(spec.Categorias) {
		vals := spec.Categorias[col]
		if len(vals) == 0 {
			continue
		}
		allowed := make(map[string]bool, len(vals))
		for _, v := range vals {
			allowed[v] = true
		}
		preds = append(preds, table.Predicate{
			Column: col,
			Keep: func(v string, ok bool) bool {
				return ok && allowed[v]
			},
		})
	}

	for _, col := range sortedKeys(spec.Textos) {
		needle := strings.ToLower(strings.TrimSpace(spec.Textos[col]))
		if needle == "" {
			continue
		}
		preds = append(preds, table.Predicate{
			Column: col,
			Keep: func(v string, ok bool) bool {
				return ok && strings.Contains(strings.ToLower(v), needle)
			},
		})
	}

	if spec.Janela != nil {
		preds = append(preds, windowPredicate(*spec.Janela))
	}

	return t.Where(preds...)
}

// PrepareDates descarta as linhas cuja data na coluna não pode ser interpretada e
// reescreve as restantes em dd/mm/aaaa (seriais do Excel inclusive).
func PrepareDates(t *table.Table, column string) (*table.Table, error) {
	valid, err := t.Where(table.Predicate{
		Column: column,
		Keep: func(v string, ok bool) bool {
			if !ok {
				return false
			}
			_, ok = table.ParseDate(v)
			return ok
		},
	})
	if err != nil {
		return nil, err
	}
	return valid.Map(column, func(v string) string {
		d, _ := table.ParseDate(v)
		return d.Format(table.DateLayout)
	})
}

// Limits devolve os limites de dia (inclusivos) da janela. from é zero quando não há limite inferior.
func Limits(j domain.JanelaValidade) (from, until time.Time) {
	hoje := j.Hoje
	if hoje.IsZero() {
		hoje = time.Now()
	}
	base := table.DateOnly(hoje.In(time.Local))
	until = base.AddDate(0, 0, j.Dias)
	if j.DesdeDias != nil {
		from = base.AddDate(0, 0, *j.DesdeDias)
	}
	return from, until
}

func windowPredicate(j domain.JanelaValidade) table.Predicate {
	from, until := Limits(j)
	return table.Predicate{
		Column: j.Coluna,
		Keep: func(v string, ok bool) bool {
			if !ok {
				return false
			}
			d, valid := table.ParseDate(v)
			if !valid {
				return false
			}
			d = table.DateOnly(d)
			if d.After(until) {
				return false
			}
			return from.IsZero() || !d.Before(from)
		},
	}
}

// Distinct devolve os valores distintos e não vazios da coluna, em ordem alfabética.
func Distinct(t *table.Table, column string) ([]string, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := []string{}
	for i := 0; i < col.Len(); i++ {
		v, ok := col.Text(i)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
