package table

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
)

func mustTable(t *testing.T, records [][]string) *Table {
	t.Helper()
	tb, err := FromRecords(records)
	if err != nil {
		t.Fatalf("Erro ao montar tabela: %v", err)
	}
	return tb
}

func TestFromRecords(t *testing.T) {
	t.Run("Apara rótulos e ignora linhas vazias iniciais", func(t *testing.T) {
		tb := mustTable(t, [][]string{
			{"", ""},
			{" Loja ", "Total  "},
			{"A", "10"},
			{"", ""},
			{"B"},
		})
		if got := tb.Columns(); !reflect.DeepEqual(got, []string{"Loja", "Total"}) {
			t.Errorf("Colunas inesperadas: %v", got)
		}
		if tb.Len() != 2 {
			t.Fatalf("Esperava 2 linhas, obteve %d", tb.Len())
		}
		col, _ := tb.Column("Total")
		if _, ok := col.Text(1); ok {
			t.Error("Célula ausente deveria ser NA")
		}
	})

	t.Run("Rótulos vazios e repetidos", func(t *testing.T) {
		tb := mustTable(t, [][]string{{"Loja", "", "Loja"}})
		want := []string{"Loja", "Coluna 2", "Loja.1"}
		if got := tb.Columns(); !reflect.DeepEqual(got, want) {
			t.Errorf("Esperava %v, obteve %v", want, got)
		}
		if tb.Len() != 0 {
			t.Errorf("Tabela só com cabeçalho deveria ter 0 linhas, obteve %d", tb.Len())
		}
	})

	t.Run("Texto NaN não é célula vazia", func(t *testing.T) {
		tb := mustTable(t, [][]string{{"Loja", "Lote"}, {"A", "NaN"}, {"B", ""}})
		col, _ := tb.Column("Lote")
		if v, ok := col.Text(0); !ok || v != "NaN" {
			t.Errorf("Esperava o texto NaN presente, obteve %q %v", v, ok)
		}
		if _, ok := col.Text(1); ok {
			t.Error("Célula vazia deveria ser NA")
		}
		if got := tb.Records()[1]; !reflect.DeepEqual(got, []string{"A", "NaN"}) {
			t.Errorf("Linha exportada inesperada: %v", got)
		}
		out, err := tb.Where(Predicate{Column: "Lote", Keep: func(v string, ok bool) bool { return ok && v == "NaN" }})
		if err != nil {
			t.Fatal(err)
		}
		if out.Len() != 1 {
			t.Errorf("Filtro por NaN deveria manter 1 linha, obteve %d", out.Len())
		}
	})

	t.Run("Planilha vazia", func(t *testing.T) {
		if _, err := FromRecords([][]string{{"", " "}}); !errors.Is(err, ErrEmpty) {
			t.Errorf("Esperava ErrEmpty, obteve %v", err)
		}
	})
}

func TestWhere(t *testing.T) {
	tb := mustTable(t, [][]string{
		{"Loja", "Descrição"},
		{"A", "Leite Integral"},
		{"B", "Arroz"},
		{"A", ""},
	})
	lojaA := Predicate{Column: "Loja", Keep: func(v string, ok bool) bool { return ok && v == "A" }}

	t.Run("Mantém apenas linhas aceitas", func(t *testing.T) {
		out, err := tb.Where(lojaA)
		if err != nil {
			t.Fatalf("Erro inesperado: %v", err)
		}
		if out.Len() != 2 {
			t.Errorf("Esperava 2 linhas, obteve %d", out.Len())
		}
	})

	t.Run("Nenhuma linha aceita", func(t *testing.T) {
		nada := Predicate{Column: "Loja", Keep: func(string, bool) bool { return false }}
		out, err := tb.Where(nada)
		if err != nil {
			t.Fatalf("Erro inesperado: %v", err)
		}
		if out.Len() != 0 || len(out.Columns()) != 2 {
			t.Errorf("Esperava tabela vazia com 2 colunas, obteve %d linhas e %v", out.Len(), out.Columns())
		}
	})

	t.Run("Coluna inexistente", func(t *testing.T) {
		_, err := tb.Where(Predicate{Column: "Lote", Keep: func(string, bool) bool { return true }})
		var mc *domain.MissingColumnError
		if !errors.As(err, &mc) || mc.Column != "Lote" {
			t.Errorf("Esperava MissingColumnError para Lote, obteve %v", err)
		}
	})

	t.Run("Records preserva ordem e vazios", func(t *testing.T) {
		recs := tb.Records()
		if len(recs) != 4 || recs[3][1] != "" || recs[1][1] != "Leite Integral" {
			t.Errorf("Records inesperado: %v", recs)
		}
	})
}

func TestMap(t *testing.T) {
	tb := mustTable(t, [][]string{{"Loja", "Lote"}, {"a", "1"}, {"b", ""}})
	out, err := tb.Map("Loja", strings.ToUpper)
	if err != nil {
		t.Fatalf("Erro inesperado: %v", err)
	}
	want := [][]string{{"Loja", "Lote"}, {"A", "1"}, {"B", ""}}
	if got := out.Records(); !reflect.DeepEqual(got, want) {
		t.Errorf("Esperava %v, obteve %v", want, got)
	}
	col, _ := out.Column("Lote")
	if _, ok := col.Text(1); ok {
		t.Error("Célula NA deveria continuar NA")
	}
	if _, err := tb.Map("Filial", strings.ToUpper); !errors.Is(err, domain.ErrMissingColumn) {
		t.Errorf("Esperava ErrMissingColumn, obteve %v", err)
	}
}

func TestParseNumber(t *testing.T) {
	casos := map[string]float64{
		"1.234,56":  1234.56,
		"R$ 10,00":  10,
		"1234.56":   1234.56,
		"-3,5":      -3.5,
		"42":        42,
		" 7 ":       7,
		"1.000.000": 1,
	}
	for in, want := range casos {
		got, ok := ParseNumber(in)
		if in == "1.000.000" {
			if ok {
				t.Errorf("%q não deveria ser aceito, obteve %v", in, got)
			}
			continue
		}
		if !ok || got != want {
			t.Errorf("ParseNumber(%q) = %v, %v; esperava %v", in, got, ok, want)
		}
	}
	if _, ok := ParseNumber("abc"); ok {
		t.Error("Texto não numérico deveria falhar")
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)
	for _, in := range []string{"05/03/2024", "5/3/2024", "2024-03-05", "05-03-2024", "20240305", "45356"} {
		d, ok := ParseDate(in)
		if !ok {
			t.Errorf("ParseDate(%q) falhou", in)
			continue
		}
		if !DateOnly(d).Equal(want) {
			t.Errorf("ParseDate(%q) = %v; esperava %v", in, d, want)
		}
	}
	for _, in := range []string{"", "amanhã", "31/02/2024", "5", "19999", "-45356"} {
		if _, ok := ParseDate(in); ok {
			t.Errorf("ParseDate(%q) deveria falhar", in)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("  Mercadológico / Seção "); got != "MERCADOLOGICO SECAO" {
		t.Errorf("Obteve %q", got)
	}
}

func TestResolve(t *testing.T) {
	t.Run("Exato, normalizado e apelido", func(t *testing.T) {
		tb := mustTable(t, [][]string{{"Loja", "MERCADOLOGICO", "EAN", "Produto", "Vencimento", "Qtd"}})
		s, err := Resolve(tb, []Role{RoleLoja, RoleMercadologico, RoleCodigoBarras, RoleDescricao, RoleValidade, RoleQuantidade})
		if err != nil {
			t.Fatalf("Erro inesperado: %v", err)
		}
		want := map[Role]string{
			RoleLoja: "Loja", RoleMercadologico: "MERCADOLOGICO", RoleCodigoBarras: "EAN",
			RoleDescricao: "Produto", RoleValidade: "Vencimento", RoleQuantidade: "Qtd",
		}
		for r, c := range want {
			if s.Column(r) != c {
				t.Errorf("Papel %s: esperava %q, obteve %q", r, c, s.Column(r))
			}
		}
	})

	t.Run("Busca aproximada", func(t *testing.T) {
		tb := mustTable(t, [][]string{{"Cod. Barras Produto", "Descricao do Item"}})
		s, err := Resolve(tb, []Role{RoleCodigoBarras})
		if err != nil {
			t.Fatalf("Erro inesperado: %v", err)
		}
		if s.Column(RoleCodigoBarras) != "Cod. Barras Produto" {
			t.Errorf("Obteve %q", s.Column(RoleCodigoBarras))
		}
	})

	t.Run("Busca aproximada não troca data de coleta por validade", func(t *testing.T) {
		tb := mustTable(t, [][]string{{"Data Coleta", "Cod. Barras Produto"}})
		s, err := Resolve(tb, nil, RoleValidade, RoleCodigoBarras)
		if err != nil {
			t.Fatalf("Erro inesperado: %v", err)
		}
		if s.Has(RoleValidade) {
			t.Errorf("Validade não deveria ser resolvida, obteve %q", s.Column(RoleValidade))
		}
		if s.Column(RoleCodigoBarras) != "Cod. Barras Produto" {
			t.Errorf("Obteve %q", s.Column(RoleCodigoBarras))
		}
	})

	t.Run("Obrigatório ausente", func(t *testing.T) {
		tb := mustTable(t, [][]string{{"Loja", "Total"}})
		_, err := Resolve(tb, []Role{RoleLote})
		if !errors.Is(err, domain.ErrMissingColumn) {
			t.Fatalf("Esperava ErrMissingColumn, obteve %v", err)
		}
		if !strings.Contains(err.Error(), "Lote") {
			t.Errorf("Mensagem deveria citar a coluna: %v", err)
		}
	})

	t.Run("Opcional ausente não falha", func(t *testing.T) {
		tb := mustTable(t, [][]string{{"Loja"}})
		s, err := Resolve(tb, []Role{RoleLoja}, RoleMotivo)
		if err != nil {
			t.Fatalf("Erro inesperado: %v", err)
		}
		if s.Has(RoleMotivo) {
			t.Error("Motivo não deveria ser resolvido")
		}
	})
}
