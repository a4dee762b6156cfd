// Package table representa uma planilha carregada como um DataFrame do gota,
// com todas as colunas do tipo texto e células vazias marcadas como NA.
package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// naMarker é o valor que o gota trata como NA em séries de texto. Uma célula cujo
// texto é literalmente "NaN" é guardada como naEscaped e devolvida intacta.
const (
	naMarker  = "NaN"
	naEscaped = "\x00NaN"
)

// ErrEmpty indica que não há cabeçalho na planilha.
var ErrEmpty = errors.New("planilha vazia: nenhum cabeçalho encontrado")

// Table é uma sequência ordenada de registros que compartilham o mesmo conjunto de colunas.
type Table struct {
	df    dataframe.DataFrame
	names []string
}

// Predicate mantém uma linha quando Keep devolve true para o valor da coluna.
// present é false quando a célula é NA.
type Predicate struct {
	Column string
	Keep   func(value string, present bool) bool
}

// FromRecords monta uma Table a partir de linhas cruas. A primeira linha não vazia
// é o cabeçalho; os rótulos são aparados antes de qualquer outro acesso.
func FromRecords(records [][]string) (*Table, error) {
	start := -1
	for i, row := range records {
		if !blankRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmpty
	}

	header := normalizeHeader(records[start])
	var rows [][]string
	for _, row := range records[start+1:] {
		if blankRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return build(header, rows)
}

// New cria uma Table com as colunas e linhas informadas. Os valores vazios viram NA.
func New(columns []string, rows [][]string) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrEmpty
	}
	return build(normalizeHeader(columns), rows)
}

func build(header []string, rows [][]string) (*Table, error) {
	cols := make([][]string, len(header))
	for j := range header {
		cols[j] = make([]string, len(rows))
	}
	for i, row := range rows {
		for j := range header {
			v := ""
			if j < len(row) {
				v = strings.TrimSpace(row[j])
			}
			switch v {
			case "":
				v = naMarker
			case naMarker:
				v = naEscaped
			}
			cols[j][i] = v
		}
	}

	ss := make([]series.Series, len(header))
	for j, name := range header {
		ss[j] = series.New(cols[j], series.String, name)
	}
	df := dataframe.New(ss...)
	if df.Err != nil {
		return nil, fmt.Errorf("erro ao montar tabela: %w", df.Err)
	}
	return &Table{df: df, names: header}, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// normalizeHeader apara os rótulos, nomeia colunas sem rótulo e desambigua repetidos.
func normalizeHeader(raw []string) []string {
	header := make([]string, len(raw))
	seen := make(map[string]int)
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Coluna " + strconv.Itoa(i+1)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		header[i] = name
	}
	return header
}

// Columns devolve os rótulos na ordem da planilha.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len devolve o número de linhas.
func (t *Table) Len() int {
	if len(t.names) == 0 {
		return 0
	}
	return t.df.Nrow()
}

// HasColumn informa se a coluna existe com o rótulo exato.
func (t *Table) HasColumn(name string) bool {
	for _, n := range t.names {
		if n == name {
			return true
		}
	}
	return false
}

// RequireColumns falha com MissingColumnError na primeira coluna ausente.
func (t *Table) RequireColumns(names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return domain.NewMissingColumnError(n, t.Columns())
		}
	}
	return nil
}

// Column é uma visão somente-leitura de uma coluna.
type Column struct {
	s series.Series
}

// Column devolve a coluna pelo rótulo exato.
func (t *Table) Column(name string) (Column, error) {
	if err := t.RequireColumns(name); err != nil {
		return Column{}, err
	}
	return Column{s: t.df.Col(name)}, nil
}

// Text devolve o texto da célula e false quando ela é NA.
func (c Column) Text(i int) (string, bool) {
	return cellText(c.s.Elem(i))
}

func cellText(el series.Element) (string, bool) {
	if el.IsNA() {
		return "", false
	}
	v := el.String()
	if v == naEscaped {
		v = naMarker
	}
	return v, true
}

// Number interpreta a célula como número. Células vazias ou inválidas devolvem false.
func (c Column) Number(i int) (float64, bool) {
	v, ok := c.Text(i)
	if !ok {
		return 0, false
	}
	return ParseNumber(v)
}

// Date interpreta a célula como data.
func (c Column) Date(i int) (time.Time, bool) {
	v, ok := c.Text(i)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(v)
}

// Len devolve o número de células da coluna.
func (c Column) Len() int {
	return c.s.Len()
}

// Rows devolve as linhas como texto, com "" nas células NA.
func (t *Table) Rows() [][]string {
	n := t.Len()
	cols := make([]Column, len(t.names))
	for j, name := range t.names {
		cols[j] = Column{s: t.df.Col(name)}
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j], _ = c.Text(i)
		}
		out[i] = row
	}
	return out
}

// Records devolve cabeçalho + linhas.
func (t *Table) Records() [][]string {
	return append([][]string{t.Columns()}, t.Rows()...)
}

// Where mantém as linhas que satisfazem todos os predicados, combinados com
// dataframe.And sobre comparadores series.CompFunc.
func (t *Table) Where(preds ...Predicate) (*Table, error) {
	if len(preds) == 0 {
		return t, nil
	}
	filters := make([]dataframe.F, len(preds))
	for k, p := range preds {
		if err := t.RequireColumns(p.Column); err != nil {
			return nil, err
		}
		keep := p.Keep
		filters[k] = dataframe.F{
			Colname:    p.Column,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				return keep(cellText(el))
			},
		}
	}

	if t.Len() == 0 {
		return t, nil
	}
	df := t.df.FilterAggregation(dataframe.And, filters...)
	if df.Err != nil {
		return nil, fmt.Errorf("erro ao filtrar tabela: %w", df.Err)
	}
	if df.Nrow() == 0 {
		return build(t.names, nil)
	}
	return &Table{df: df, names: t.Columns()}, nil
}

// Map reescreve com fn as células presentes da coluna. Células NA continuam NA.
func (t *Table) Map(column string, fn func(string) string) (*Table, error) {
	if err := t.RequireColumns(column); err != nil {
		return nil, err
	}
	idx := 0
	for j, n := range t.names {
		if n == column {
			idx = j
			break
		}
	}
	col := Column{s: t.df.Col(column)}
	rows := t.Rows()
	for i := range rows {
		if _, ok := col.Text(i); ok {
			rows[i][idx] = fn(rows[i][idx])
		}
	}
	return build(t.names, rows)
}

// Subset devolve as linhas dos índices informados, na ordem dada.
func (t *Table) Subset(indexes []int) (*Table, error) {
	if len(indexes) == 0 {
		return build(t.names, nil)
	}
	df := t.df.Subset(indexes)
	if df.Err != nil {
		return nil, fmt.Errorf("erro ao filtrar tabela: %w", df.Err)
	}
	return &Table{df: df, names: t.Columns()}, nil
}

// Frame expõe o DataFrame subjacente.
func (t *Table) Frame() dataframe.DataFrame {
	return t.df
}
