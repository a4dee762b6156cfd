package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/carlmjohnson/requests"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Service define a interface para o carregamento de planilhas.
type Service interface {
	FromUpload(ctx context.Context, r io.Reader, filename string) (*table.Table, error)
	FromURL(ctx context.Context, rawURL string) (*table.Table, error)
}

type service struct {
	log     *zap.Logger
	timeout time.Duration
}

// NewService cria uma nova instância do serviço de ingestão.
// timeout <= 0 desativa o limite de tempo do download.
func NewService(log *zap.Logger, timeout time.Duration) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{log: log, timeout: timeout}
}

type formato int

const (
	formatoCSV formato = iota
	formatoXLSX
	formatoXLS
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

func (svc *service) FromUpload(ctx context.Context, r io.Reader, filename string) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &domain.SourceError{Origem: filename, Err: fmt.Errorf("erro ao ler arquivo enviado: %w", err)}
	}
	t, err := svc.parse(data, filepath.Ext(filename))
	if err != nil {
		return nil, &domain.SourceError{Origem: filename, Err: err}
	}
	svc.log.Info("planilha carregada",
		zap.String("modo", string(domain.SourceUpload)),
		zap.String("arquivo", filename),
		zap.Int("linhas", t.Len()),
		zap.Int("colunas", len(t.Columns())))
	return t, nil
}

func (svc *service) FromURL(ctx context.Context, rawURL string) (*table.Table, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &domain.SourceError{Origem: rawURL, Remote: true, Err: fmt.Errorf("url inválida: %q", rawURL)}
	}

	if svc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.timeout)
		defer cancel()
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := requests.URL(rawURL).ToBytesBuffer(&buf).Fetch(ctx); err != nil {
		svc.log.Warn("falha ao baixar planilha", zap.String("url", rawURL), zap.Error(err))
		return nil, &domain.SourceError{Origem: rawURL, Remote: true, Err: err}
	}

	t, err := svc.parse(buf.Bytes(), path.Ext(u.Path))
	if err != nil {
		return nil, &domain.SourceError{Origem: rawURL, Remote: true, Err: err}
	}
	svc.log.Info("planilha carregada",
		zap.String("modo", string(domain.SourceRemote)),
		zap.String("url", rawURL),
		zap.Int("bytes", buf.Len()),
		zap.Duration("duracao", time.Since(start)),
		zap.Int("linhas", t.Len()))
	return t, nil
}

func (svc *service) parse(data []byte, ext string) (*table.Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, table.ErrEmpty
	}

	var (
		records [][]string
		err     error
	)
	switch detectFormat(data, ext) {
	case formatoXLSX:
		records, err = svc.readXLSX(data)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler .xlsx: %w", err)
		}
	case formatoXLS:
		records, err = svc.readXLS(data)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler .xls: %w", err)
		}
	default:
		records, err = svc.readCSV(data)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler .csv: %w", err)
		}
	}
	return table.FromRecords(records)
}

func detectFormat(data []byte, ext string) formato {
	switch strings.ToLower(ext) {
	case ".xlsx", ".xlsm":
		return formatoXLSX
	case ".xls":
		return formatoXLS
	case ".csv", ".txt":
		return formatoCSV
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return formatoXLSX
	case bytes.HasPrefix(data, oleMagic):
		return formatoXLS
	}
	return formatoCSV
}

// readXLSX lê apenas a primeira aba, com valores crus (datas chegam como seriais).
func (svc *service) readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("nenhuma aba encontrada")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func (svc *service) readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		// Alguns sistemas exportam .xlsx com extensão .xls.
		if _, errX := excelize.OpenReader(bytes.NewReader(data)); errX == nil {
			return svc.readXLSX(data)
		}
		return nil, err
	}

	sheets := workbook.GetSheets()
	if len(sheets) == 0 {
		return nil, errors.New("nenhuma aba encontrada")
	}
	var records [][]string
	for _, row := range sheets[0].GetRows() {
		var rec []string
		for _, cell := range row.GetCols() {
			rec = append(rec, cell.GetString())
		}
		records = append(records, rec)
	}
	return records, nil
}

func (svc *service) readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// sniffDelimiter escolhe entre ';', ',' e tab pela primeira linha não vazia.
func sniffDelimiter(data []byte) rune {
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		best, count := ',', bytes.Count(line, []byte(","))
		if n := bytes.Count(line, []byte(";")); n > count {
			best, count = ';', n
		}
		if n := bytes.Count(line, []byte("\t")); n > count {
			best = '\t'
		}
		return best
	}
	return ','
}
