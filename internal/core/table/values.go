package table

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DateLayout é o formato de data usado em todas as saídas (dd/mm/aaaa).
const DateLayout = "02/01/2006"

// DateTimeLayout é o formato do carimbo "Data Coleta".
const DateTimeLayout = "02/01/2006 15:04"

var dateLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02-01-2006",
	"02.01.2006",
	"20060102",
}

// Faixa aceita para seriais do Excel: 20000 é 03/10/1954; números menores são
// quantidades ou códigos, não datas.
const (
	minExcelSerial = 20000
	maxExcelSerial = 2958466
)

// ParseDate interpreta datas em dd/mm/aaaa, ISO e números seriais do Excel.
func ParseDate(val string) (time.Time, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return d, true
		}
	}
	// Serial do Excel (dias desde 1899-12-30), eventualmente com fração de dia.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial < maxExcelSerial {
		d, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, time.Local), true
		}
	}
	return time.Time{}, false
}

// DateOnly trunca o horário, mantendo o fuso.
func DateOnly(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location())
}

// ParseNumber aceita "1.234,56", "R$ 10,00" e "1234.56".
func ParseNumber(val string) (float64, bool) {
	s := strings.TrimSpace(val)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatNumber formata com duas casas e vírgula decimal.
func FormatNumber(val float64) string {
	return strings.Replace(strconv.FormatFloat(val, 'f', 2, 64), ".", ",", 1)
}

var nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeText remove acentos, converte para maiúsculas e colapsa pontuação em espaços.
func NormalizeText(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
