// Package report gera as exportações (CSV, XLSX e PDF) e os dados de gráfico.
// Nada é persistido: cada chamada produz os bytes do arquivo sob demanda.
package report

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/aggregate"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
	ContentTypeJSON = "application/json"
)

// CSVOptions ajusta o delimitador e a codificação. O valor zero gera UTF-8 com vírgula.
type CSVOptions struct {
	Comma       rune
	Windows1252 bool
}

// CSV escreve o cabeçalho na ordem das colunas e uma linha por registro, sem índice.
func CSV(t *table.Table, opts CSVOptions) ([]byte, error) {
	return writeCSV(t.Records(), opts)
}

// AggregationCSV exporta todos os grupos do resultado.
func AggregationCSV(res domain.AggregationResult, opts CSVOptions) ([]byte, error) {
	t, err := aggregate.ToTable(res)
	if err != nil {
		return nil, err
	}
	return CSV(t, opts)
}

func writeCSV(records [][]string, opts CSVOptions) ([]byte, error) {
	var buffer bytes.Buffer
	var out io.Writer = &buffer
	var tw *transform.Writer
	if opts.Windows1252 {
		tw = transform.NewWriter(&buffer, encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()))
		out = tw
	}

	writer := csv.NewWriter(out)
	if opts.Comma != 0 {
		writer.Comma = opts.Comma
	}
	if err := writer.WriteAll(records); err != nil {
		return nil, err
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return nil, err
		}
	}
	return buffer.Bytes(), nil
}
