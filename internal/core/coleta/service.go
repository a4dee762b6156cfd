package coleta

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"go.uber.org/zap"
)

// DefaultFileName é o nome do arquivo de coleta quando nenhum outro é configurado.
const DefaultFileName = "coleta_validade.csv"

// Service define a interface da coleta de validade: consulta de produto e registro
// no arquivo de coleta.
type Service interface {
	Lookup(t *table.Table, codigo string) (descricao string, found bool, err error)
	Save(ctx context.Context, src domain.Source, entry domain.ColetaEntry) (domain.ColetaRecord, error)
	List(ctx context.Context, src domain.Source) (*table.Table, error)
	PathFor(src domain.Source) string
}

type service struct {
	log      *zap.Logger
	dir      string
	fileName string
	now      func() time.Time

	// Serializa leitura+regravação dentro do processo. Entre processos vale o último a gravar.
	mu sync.Mutex
}

// NewService cria o serviço de coleta gravando em dir/fileName.
func NewService(log *zap.Logger, dir, fileName string) Service {
	if log == nil {
		log = zap.NewNop()
	}
	if dir == "" {
		dir = "."
	}
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &service{log: log, dir: dir, fileName: fileName, now: time.Now}
}

// Lookup procura a primeira linha cujo código de barras, como texto, é igual ao código.
func (svc *service) Lookup(t *table.Table, codigo string) (string, bool, error) {
	s, err := table.Resolve(t, []table.Role{table.RoleCodigoBarras, table.RoleDescricao})
	if err != nil {
		return "", false, err
	}
	codigo = strings.TrimSpace(codigo)
	if codigo == "" {
		return "", false, nil
	}

	codes, _ := t.Column(s.Column(table.RoleCodigoBarras))
	descs, _ := t.Column(s.Column(table.RoleDescricao))
	for i := 0; i < codes.Len(); i++ {
		v, ok := codes.Text(i)
		if !ok || normalizeCode(v) != normalizeCode(codigo) {
			continue
		}
		desc, _ := descs.Text(i)
		return desc, true, nil
	}
	svc.log.Debug("produto não encontrado", zap.String("codigo", codigo))
	return "", false, nil
}

// normalizeCode remove o ".0" que aparece quando o código vem de uma célula numérica.
func normalizeCode(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimSuffix(v, ".0")
}

func (svc *service) Save(ctx context.Context, src domain.Source, entry domain.ColetaEntry) (domain.ColetaRecord, error) {
	var faltando []string
	if strings.TrimSpace(entry.CodigoBarras) == "" {
		faltando = append(faltando, domain.ColCodigoBarras)
	}
	if strings.TrimSpace(entry.Descricao) == "" {
		faltando = append(faltando, domain.ColDescricao)
	}
	if strings.TrimSpace(entry.Lote) == "" {
		faltando = append(faltando, domain.ColLote)
	}
	if len(faltando) > 0 {
		return domain.ColetaRecord{}, &domain.IncompleteFormError{Campos: faltando}
	}
	if err := ctx.Err(); err != nil {
		return domain.ColetaRecord{}, err
	}

	now := svc.now()
	validade := entry.DataValidade
	if validade.IsZero() {
		validade = now
	}
	rec := domain.ColetaRecord{
		DataColeta:    now.Format(table.DateTimeLayout),
		Mercadologico: strings.TrimSpace(entry.Mercadologico),
		CodigoBarras:  strings.TrimSpace(entry.CodigoBarras),
		Descricao:     strings.TrimSpace(entry.Descricao),
		DataValidade:  validade.Format(table.DateLayout),
		Lote:          strings.TrimSpace(entry.Lote),
	}

	path := svc.PathFor(src)

	svc.mu.Lock()
	defer svc.mu.Unlock()

	header, rows, err := readLog(path)
	if err != nil {
		return domain.ColetaRecord{}, fmt.Errorf("erro ao ler arquivo de coleta: %w", err)
	}
	header = mergeHeader(header, domain.ColetaHeader)

	values := rec.Values()
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = values[col]
	}
	rows = append(rows, row)

	if err := writeLog(path, header, rows); err != nil {
		return domain.ColetaRecord{}, fmt.Errorf("erro ao gravar arquivo de coleta: %w", err)
	}
	svc.log.Info("coleta registrada",
		zap.String("arquivo", path),
		zap.String("codigo", rec.CodigoBarras),
		zap.String("lote", rec.Lote),
		zap.Int("registros", len(rows)))
	return rec, nil
}

// List devolve o arquivo de coleta como tabela. Sem arquivo, a tabela vem vazia com o cabeçalho padrão.
func (svc *service) List(ctx context.Context, src domain.Source) (*table.Table, error) {
	svc.mu.Lock()
	header, rows, err := readLog(svc.PathFor(src))
	svc.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("erro ao ler arquivo de coleta: %w", err)
	}
	if header == nil {
		header = domain.ColetaHeader
	}
	return table.New(header, rows)
}

// PathFor devolve o caminho do arquivo de coleta: ao lado da planilha enviada, ou no
// diretório padrão para fontes remotas. O nome enviado nunca sai do diretório base.
func (svc *service) PathFor(src domain.Source) string {
	if src.Mode == domain.SourceUpload && src.Filename != "" {
		sub := filepath.Dir(filepath.Clean("/" + filepath.ToSlash(src.Filename)))
		return filepath.Join(svc.dir, sub, svc.fileName)
	}
	return filepath.Join(svc.dir, svc.fileName)
}

func readLog(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	// Linhas mais largas que o cabeçalho ganham colunas "Coluna N" em vez de perder campos.
	for _, r := range records[1:] {
		for len(header) < len(r) {
			header = append(header, "Coluna "+strconv.Itoa(len(header)+1))
		}
	}
	rows := make([][]string, 0, len(records)-1)
	for _, r := range records[1:] {
		row := make([]string, len(header))
		copy(row, r)
		rows = append(rows, row)
	}
	return header, rows, nil
}

// mergeHeader mantém as colunas existentes e acrescenta ao fim as que faltam.
func mergeHeader(existing, required []string) []string {
	out := append([]string{}, existing...)
	for _, col := range required {
		found := false
		for _, e := range out {
			if e == col {
				found = true
				break
			}
		}
		if !found {
			out = append(out, col)
		}
	}
	return out
}

// writeLog regrava o arquivo inteiro por meio de um temporário no mesmo diretório.
func writeLog(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".coleta-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	for i := range rows {
		if len(rows[i]) < len(header) {
			padded := make([]string, len(header))
			copy(padded, rows[i])
			rows[i] = padded
		}
	}

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
