package report

import (
	"fmt"
	"unicode/utf8"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/aggregate"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Relatorio"
	chartSheet   = "Grafico"
)

// XLSX gera uma planilha com uma única aba, no mesmo layout do CSV.
func XLSX(t *table.Table, sheet string) ([]byte, error) {
	if sheet == "" {
		sheet = defaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := writeHeader(f, sheet, t.Columns()); err != nil {
		return nil, err
	}
	for i, rec := range t.Rows() {
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	autoWidth(f, sheet, t.Records())

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// AggregationXLSX exporta todos os grupos com valores numéricos. Com chart, acrescenta
// uma segunda aba com os topN primeiros grupos e um gráfico de barras (ou pizza, na
// visão de participação).
func AggregationXLSX(res domain.AggregationResult, chart bool, topN int) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := defaultSheet
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	cols := aggregate.Columns(res)
	if err := writeHeader(f, sheet, cols); err != nil {
		return nil, err
	}
	records := [][]string{cols}
	for i, g := range res.Grupos {
		row := make([]interface{}, 0, len(cols))
		for _, k := range g.Chaves {
			row = append(row, k)
		}
		row = append(row, g.Valor, g.Linhas)
		if res.Visao == domain.ViewParticipation {
			row = append(row, g.Percentual)
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
		records = append(records, g.Chaves)
	}
	autoWidth(f, sheet, records)

	if chart && len(res.Grupos) > 0 {
		if err := addChart(f, res, topN); err != nil {
			return nil, fmt.Errorf("erro ao gerar gráfico: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func addChart(f *excelize.File, res domain.AggregationResult, topN int) error {
	data := ChartData(res, topN)
	if _, err := f.NewSheet(chartSheet); err != nil {
		return err
	}
	valueHeader := res.Medida
	if res.Visao == domain.ViewParticipation {
		valueHeader = domain.ColPartici
	}
	if err := writeHeader(f, chartSheet, []string{"Grupo", valueHeader}); err != nil {
		return err
	}
	for i := range data.Labels {
		if err := setRow(f, chartSheet, i+2, []interface{}{data.Labels[i], data.Values[i]}); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(chartSheet, "A", "A", 40)

	last := len(data.Labels) + 1
	typ := excelize.Col
	if data.Tipo == ChartPie {
		typ = excelize.Pie
	}
	return f.AddChart(chartSheet, "D2", &excelize.Chart{
		Type: typ,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", chartSheet),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", chartSheet, last),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", chartSheet, last),
		}},
		Title:     []excelize.RichTextRun{{Text: chartTitle(res)}},
		Dimension: excelize.ChartDimension{Width: 720, Height: 420},
	})
}

func writeHeader(f *excelize.File, sheet string, cols []string) error {
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, rowNum int, row []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &row)
}

// autoWidth ajusta a largura pela maior célula de texto, limitada a 60.
func autoWidth(f *excelize.File, sheet string, records [][]string) {
	widths := map[int]int{}
	for _, rec := range records {
		for j, v := range rec {
			if n := utf8.RuneCountInString(v); n > widths[j] {
				widths[j] = n
			}
		}
	}
	for j, w := range widths {
		name, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			continue
		}
		width := float64(w + 2)
		if width < 10 {
			width = 10
		}
		if width > 60 {
			width = 60
		}
		_ = f.SetColWidth(sheet, name, name, width)
	}
}
