// internal/domain/models.go
package domain

import "time"

// Nomes canônicos das colunas usadas pelos relatórios e pelo arquivo de coleta.
const (
	ColDataColeta    = "Data Coleta"
	ColLoja          = "Loja"
	ColMercadologico = "Mercadológico"
	ColCodigoBarras  = "Código Barras"
	ColDescricao     = "Descrição"
	ColDataValidade  = "Data Validade"
	ColLote          = "Lote"
	ColPartici       = "Partici%"
)

// ColetaHeader é o cabeçalho do arquivo de coleta de validade, na ordem em que é gravado.
var ColetaHeader = []string{
	ColDataColeta,
	ColMercadologico,
	ColCodigoBarras,
	ColDescricao,
	ColDataValidade,
	ColLote,
}

// SourceMode indica de onde a planilha foi carregada.
type SourceMode string

const (
	SourceUpload SourceMode = "upload"
	SourceRemote SourceMode = "github"
)

// Source descreve a origem de uma tabela carregada.
type Source struct {
	Mode     SourceMode `json:"modo"`
	URL      string     `json:"url,omitempty"`
	Filename string     `json:"arquivo,omitempty"`
}

// JanelaValidade mantém apenas linhas cuja data é <= Hoje + Dias.
// DesdeDias, quando informado, exige também data >= Hoje + DesdeDias.
type JanelaValidade struct {
	Coluna    string    `json:"coluna"`
	Dias      int       `json:"dias"`
	DesdeDias *int      `json:"desde_dias,omitempty"`
	Hoje      time.Time `json:"hoje"`
}

// FilterSpec reúne os predicados independentes aplicados a uma tabela.
// Predicados vazios são ignorados; os demais são combinados com E.
type FilterSpec struct {
	Categorias map[string][]string `json:"categorias,omitempty"`
	Textos     map[string]string   `json:"textos,omitempty"`
	Janela     *JanelaValidade     `json:"janela,omitempty"`
}

// IsEmpty informa se nenhum predicado efetivo foi definido.
func (f FilterSpec) IsEmpty() bool {
	for _, vals := range f.Categorias {
		if len(vals) > 0 {
			return false
		}
	}
	for _, txt := range f.Textos {
		if txt != "" {
			return false
		}
	}
	return f.Janela == nil
}

// ViewKind define a ordenação e as colunas derivadas de uma agregação.
type ViewKind string

const (
	ViewTotal         ViewKind = "total"
	ViewParticipation ViewKind = "participacao"
)

// GroupRow é um grupo agregado.
type GroupRow struct {
	Chaves     []string `json:"chaves"`
	Valor      float64  `json:"valor"`
	Percentual float64  `json:"percentual"`
	Linhas     int      `json:"linhas"`
}

// AggregationResult é o resultado de uma agregação por uma ou duas colunas.
type AggregationResult struct {
	Visao      ViewKind   `json:"visao"`
	Chaves     []string   `json:"colunas_chave"`
	Medida     string     `json:"medida"`
	Grupos     []GroupRow `json:"grupos"`
	TotalGeral float64    `json:"total_geral"`
	TotalZero  bool       `json:"total_zero"`
}

// ChartSeries é o payload de gráfico (barras ou pizza) entregue ao front-end.
type ChartSeries struct {
	Tipo   string    `json:"tipo"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ColetaEntry é o formulário de coleta de validade preenchido pelo usuário.
type ColetaEntry struct {
	Mercadologico string    `json:"mercadologico"`
	CodigoBarras  string    `json:"codigo_barras"`
	Descricao     string    `json:"descricao"`
	DataValidade  time.Time `json:"data_validade"`
	Lote          string    `json:"lote"`
}

// ColetaRecord é uma linha gravada no arquivo de coleta.
type ColetaRecord struct {
	DataColeta    string `json:"data_coleta"`
	Mercadologico string `json:"mercadologico"`
	CodigoBarras  string `json:"codigo_barras"`
	Descricao     string `json:"descricao"`
	DataValidade  string `json:"data_validade"`
	Lote          string `json:"lote"`
}

// Values devolve os campos indexados pelo nome da coluna no arquivo.
func (r ColetaRecord) Values() map[string]string {
	return map[string]string{
		ColDataColeta:    r.DataColeta,
		ColMercadologico: r.Mercadologico,
		ColCodigoBarras:  r.CodigoBarras,
		ColDescricao:     r.Descricao,
		ColDataValidade:  r.DataValidade,
		ColLote:          r.Lote,
	}
}
