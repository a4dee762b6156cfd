package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 15.0
	pdfLineHeight = 6.0
	pdfTitleSize  = 14.0
	pdfBodySize   = 9.0
)

// PDF gera um A4 retrato com uma linha por registro:
//
//	<n>. Produto: <desc> | Código: <code> | Validade: <dd/mm/aaaa> | Loja: <loja> | Qtde: <qtde>
//
// O título aparece uma única vez, no topo da primeira página. Papéis não resolvidos
// no schema saem em branco.
func PDF(t *table.Table, s table.Schema, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	width := pageW - 2*pdfMargin
	bottom := pageH - pdfMargin

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", pdfTitleSize)
	pdf.CellFormat(width, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", pdfBodySize)

	cols := pdfColumns(t, s)
	for i := 0; i < t.Len(); i++ {
		if pdf.GetY()+pdfLineHeight > bottom {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", pdfBodySize)
		}
		line := fit(pdf, tr, recordLine(i+1, cols, i), width)
		pdf.CellFormat(width, pdfLineHeight, tr(line), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("erro ao gerar pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfCols struct {
	descricao, codigo, validade, loja, qtde *table.Column
}

func pdfColumns(t *table.Table, s table.Schema) pdfCols {
	get := func(r table.Role) *table.Column {
		name := s.Column(r)
		if name == "" {
			return nil
		}
		c, err := t.Column(name)
		if err != nil {
			return nil
		}
		return &c
	}
	return pdfCols{
		descricao: get(table.RoleDescricao),
		codigo:    get(table.RoleCodigoBarras),
		validade:  get(table.RoleValidade),
		loja:      get(table.RoleLoja),
		qtde:      get(table.RoleQuantidade),
	}
}

func recordLine(n int, c pdfCols, i int) string {
	return fmt.Sprintf("%d. Produto: %s | Código: %s | Validade: %s | Loja: %s | Qtde: %s",
		n, text(c.descricao, i), text(c.codigo, i), date(c.validade, i), text(c.loja, i), quantity(c.qtde, i))
}

func text(c *table.Column, i int) string {
	if c == nil {
		return ""
	}
	v, _ := c.Text(i)
	return v
}

func date(c *table.Column, i int) string {
	if c == nil {
		return ""
	}
	if d, ok := c.Date(i); ok {
		return d.Format(table.DateLayout)
	}
	return text(c, i)
}

func quantity(c *table.Column, i int) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Number(i); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return text(c, i)
}

// fit corta o texto com reticências para caber na largura da linha.
func fit(pdf *fpdf.Fpdf, tr func(string) string, s string, width float64) string {
	if pdf.GetStringWidth(tr(s)) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(tr(string(r)+"...")) > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
