package table

import (
	"sort"
	"strings"

	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/schollz/closestmatch"
)

// Role é o papel de uma coluna nos relatórios, independente do rótulo usado na planilha.
type Role string

const (
	RoleLoja          Role = domain.ColLoja
	RoleMercadologico Role = domain.ColMercadologico
	RoleCodigoBarras  Role = domain.ColCodigoBarras
	RoleDescricao     Role = domain.ColDescricao
	RoleValidade      Role = domain.ColDataValidade
	RoleQuantidade    Role = "Qtde"
	RoleTotal         Role = "Total"
	RoleMotivo        Role = "Motivo"
	RoleLote          Role = domain.ColLote
)

// AllRoles lista os papéis na ordem de resolução.
var AllRoles = []Role{
	RoleLoja, RoleMercadologico, RoleCodigoBarras, RoleDescricao,
	RoleValidade, RoleQuantidade, RoleTotal, RoleMotivo, RoleLote,
}

var roleAliases = map[Role][]string{
	RoleLoja:          {"LOJA", "FILIAL", "UNIDADE"},
	RoleMercadologico: {"MERCADOLOGICO", "SECAO", "SETOR", "DEPARTAMENTO", "CATEGORIA"},
	RoleCodigoBarras:  {"CODIGO BARRAS", "CODIGO DE BARRAS", "COD BARRAS", "EAN", "GTIN"},
	RoleDescricao:     {"DESCRICAO", "DESCRICAO PRODUTO", "PRODUTO"},
	RoleValidade:      {"DATA VALIDADE", "VALIDADE", "DT VALIDADE", "VENCIMENTO"},
	RoleQuantidade:    {"QTDE", "QTD", "QUANTIDADE"},
	RoleTotal:         {"TOTAL", "VALOR TOTAL", "CUSTO TOTAL", "VALOR"},
	RoleMotivo:        {"MOTIVO", "TIPO PERDA", "MOTIVO PERDA"},
	RoleLote:          {"LOTE"},
}

// Schema associa cada papel ao rótulo concreto encontrado na tabela.
type Schema struct {
	cols map[Role]string
}

// Resolve procura cada papel nas colunas da tabela: rótulo exato, rótulo normalizado
// (sem acento, sem caixa), apelidos conhecidos e por fim busca aproximada.
// Papéis obrigatórios não encontrados geram MissingColumnError.
func Resolve(t *Table, required []Role, optional ...Role) (Schema, error) {
	columns := t.Columns()
	s := Schema{cols: make(map[Role]string)}
	used := make(map[string]bool)

	byNorm := make(map[string]string, len(columns))
	for _, c := range columns {
		n := NormalizeText(c)
		if _, ok := byNorm[n]; !ok {
			byNorm[n] = c
		}
	}

	roles := append(append([]Role{}, required...), optional...)

	// 1ª passada: correspondências exatas ou normalizadas.
	for _, r := range roles {
		if t.HasColumn(string(r)) && !used[string(r)] {
			s.cols[r] = string(r)
			used[string(r)] = true
			continue
		}
		for _, alias := range roleAliases[r] {
			if c, ok := byNorm[alias]; ok && !used[c] {
				s.cols[r] = c
				used[c] = true
				break
			}
		}
	}

	// 2ª passada: busca aproximada entre as colunas ainda livres.
	// O closestmatch compara em minúsculas, então as chaves também vão em minúsculas.
	byLower := make(map[string]string, len(byNorm))
	var free []string
	for n, c := range byNorm {
		if !used[c] {
			k := strings.ToLower(n)
			byLower[k] = c
			free = append(free, k)
		}
	}
	sort.Strings(free)
	for _, r := range roles {
		if _, ok := s.cols[r]; ok || len(free) == 0 {
			continue
		}
		cm := closestmatch.New(free, []int{2, 3})
	aliases:
		for _, alias := range roleAliases[r] {
			for _, match := range cm.ClosestN(strings.ToLower(alias), 3) {
				col, ok := byLower[match]
				if !ok || used[col] || !shareToken(strings.ToUpper(match), alias) {
					continue
				}
				s.cols[r] = col
				used[col] = true
				break aliases
			}
		}
	}

	for _, r := range required {
		if _, ok := s.cols[r]; !ok {
			return Schema{}, domain.NewMissingColumnError(string(r), columns)
		}
	}
	return s, nil
}

// genericTokens não bastam, sozinhos, para associar uma coluna a um papel.
var genericTokens = map[string]bool{
	"DATA": true, "DT": true, "DE": true, "DO": true, "DA": true,
	"COD": true, "CODIGO": true, "VALOR": true, "VLR": true,
}

// shareToken evita que a busca aproximada case rótulos sem nenhuma palavra relevante
// em comum (por exemplo "LOTE" com "LOJA" ou "DATA VALIDADE" com "DATA COLETA").
func shareToken(a, b string) bool {
	for _, ta := range strings.Fields(a) {
		if genericTokens[ta] {
			continue
		}
		for _, tb := range strings.Fields(b) {
			if genericTokens[tb] {
				continue
			}
			if ta == tb || (len(ta) >= 3 && len(tb) >= 3 && (strings.HasPrefix(ta, tb) || strings.HasPrefix(tb, ta))) {
				return true
			}
		}
	}
	return false
}

// Column devolve o rótulo da coluna que cumpre o papel, ou "" se não foi resolvido.
func (s Schema) Column(r Role) string {
	return s.cols[r]
}

// Has informa se o papel foi resolvido.
func (s Schema) Has(r Role) bool {
	_, ok := s.cols[r]
	return ok
}

// Mapping devolve papel → coluna, para exibição.
func (s Schema) Mapping() map[string]string {
	out := make(map[string]string, len(s.cols))
	for r, c := range s.cols {
		out[string(r)] = c
	}
	return out
}
