package coleta

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"go.uber.org/zap"
)

var agora = time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)

func novoServico(t *testing.T) (*service, string) {
	t.Helper()
	dir := t.TempDir()
	svc := NewService(zap.NewNop(), dir, "").(*service)
	svc.now = func() time.Time { return agora }
	return svc, dir
}

var remoto = domain.Source{Mode: domain.SourceRemote, URL: "https://example.com/produtos.xlsx"}

func entradaValida() domain.ColetaEntry {
	return domain.ColetaEntry{
		Mercadologico: "Bebidas",
		CodigoBarras:  "7891000100103",
		Descricao:     "Suco de Uva 1L",
		DataValidade:  time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local),
		Lote:          "L1",
	}
}

func lerLinhas(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Erro ao ler arquivo de coleta: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestSave(t *testing.T) {
	t.Run("Formulário incompleto não grava", func(t *testing.T) {
		svc, dir := novoServico(t)
		entry := entradaValida()
		entry.CodigoBarras = ""
		entry.Descricao = "X"
		_, err := svc.Save(context.Background(), remoto, entry)
		if !errors.Is(err, domain.ErrIncompleteForm) {
			t.Fatalf("Esperava ErrIncompleteForm, obteve %v", err)
		}
		var inc *domain.IncompleteFormError
		if !errors.As(err, &inc) || !reflect.DeepEqual(inc.Campos, []string{domain.ColCodigoBarras}) {
			t.Errorf("Campos faltando inesperados: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, DefaultFileName)); !os.IsNotExist(err) {
			t.Error("Nenhum arquivo deveria ter sido criado")
		}
	})

	t.Run("Primeira gravação cria cabeçalho e uma linha", func(t *testing.T) {
		svc, dir := novoServico(t)
		rec, err := svc.Save(context.Background(), remoto, entradaValida())
		if err != nil {
			t.Fatalf("Erro inesperado: %v", err)
		}
		if rec.DataColeta != "14/03/2025 09:30" || rec.DataValidade != "01/04/2025" {
			t.Errorf("Datas inesperadas: %+v", rec)
		}
		lines := lerLinhas(t, filepath.Join(dir, DefaultFileName))
		want := []string{
			"Data Coleta,Mercadológico,Código Barras,Descrição,Data Validade,Lote",
			"14/03/2025 09:30,Bebidas,7891000100103,Suco de Uva 1L,01/04/2025,L1",
		}
		if !reflect.DeepEqual(lines, want) {
			t.Errorf("Esperava %q, obteve %q", want, lines)
		}
	})

	t.Run("Gravações seguintes não repetem o cabeçalho", func(t *testing.T) {
		svc, dir := novoServico(t)
		for i := 0; i < 3; i++ {
			if _, err := svc.Save(context.Background(), remoto, entradaValida()); err != nil {
				t.Fatalf("Erro inesperado: %v", err)
			}
		}
		lines := lerLinhas(t, filepath.Join(dir, DefaultFileName))
		if len(lines) != 4 {
			t.Fatalf("Esperava cabeçalho + 3 linhas, obteve %d", len(lines))
		}
		if lines[1] != lines[3] {
			t.Error("Duplicatas são permitidas e devem ser iguais")
		}
	})

	t.Run("Cabeçalho existente com coluna extra é preservado", func(t *testing.T) {
		svc, dir := novoServico(t)
		path := filepath.Join(dir, DefaultFileName)
		if err := os.WriteFile(path, []byte("Código Barras,Observação\n123,antigo\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Save(context.Background(), remoto, entradaValida()); err != nil {
			t.Fatalf("Erro inesperado: %v", err)
		}
		lines := lerLinhas(t, path)
		want := []string{
			"Código Barras,Observação,Data Coleta,Mercadológico,Descrição,Data Validade,Lote",
			"123,antigo,,,,,",
			"7891000100103,,14/03/2025 09:30,Bebidas,Suco de Uva 1L,01/04/2025,L1",
		}
		if !reflect.DeepEqual(lines, want) {
			t.Errorf("Esperava %q, obteve %q", want, lines)
		}
	})

	t.Run("Linha mais larga que o cabeçalho não perde campos", func(t *testing.T) {
		svc, dir := novoServico(t)
		path := filepath.Join(dir, DefaultFileName)
		if err := os.WriteFile(path, []byte("Código Barras\n123,antigo,extra\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Save(context.Background(), remoto, entradaValida()); err != nil {
			t.Fatalf("Erro inesperado: %v", err)
		}
		lines := lerLinhas(t, path)
		want := []string{
			"Código Barras,Coluna 2,Coluna 3,Data Coleta,Mercadológico,Descrição,Data Validade,Lote",
			"123,antigo,extra,,,,,",
			"7891000100103,,,14/03/2025 09:30,Bebidas,Suco de Uva 1L,01/04/2025,L1",
		}
		if !reflect.DeepEqual(lines, want) {
			t.Errorf("Esperava %q, obteve %q", want, lines)
		}
	})

	t.Run("Gravações concorrentes não se perdem", func(t *testing.T) {
		svc, dir := novoServico(t)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.Save(context.Background(), remoto, entradaValida()); err != nil {
					t.Error(err)
				}
			}()
		}
		wg.Wait()
		if n := len(lerLinhas(t, filepath.Join(dir, DefaultFileName))); n != 21 {
			t.Errorf("Esperava 21 linhas, obteve %d", n)
		}
	})
}

func TestPathFor(t *testing.T) {
	svc := NewService(zap.NewNop(), "/dados", "coleta.csv")
	casos := []struct {
		src  domain.Source
		want string
	}{
		{domain.Source{Mode: domain.SourceRemote}, "/dados/coleta.csv"},
		{domain.Source{Mode: domain.SourceUpload, Filename: "perdas.xlsx"}, "/dados/coleta.csv"},
		{domain.Source{Mode: domain.SourceUpload, Filename: "loja1/perdas.xlsx"}, "/dados/loja1/coleta.csv"},
		{domain.Source{Mode: domain.SourceUpload, Filename: "../../etc/perdas.xlsx"}, "/dados/etc/coleta.csv"},
	}
	for _, c := range casos {
		if got := svc.PathFor(c.src); got != filepath.FromSlash(c.want) {
			t.Errorf("PathFor(%+v) = %q; esperava %q", c.src, got, c.want)
		}
	}
}

func TestLookup(t *testing.T) {
	svc, _ := novoServico(t)
	tb, err := table.FromRecords([][]string{
		{"Código Barras", "Descrição", "Mercadológico"},
		{"111", "Suco", "Bebidas"},
		{"7891000100103.0", "Suco de Uva 1L", "Bebidas"},
		{"111", "Duplicado", "Bebidas"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if desc, ok, err := svc.Lookup(tb, " 111 "); err != nil || !ok || desc != "Suco" {
		t.Errorf("Esperava a primeira ocorrência, obteve %q %v %v", desc, ok, err)
	}
	if desc, ok, _ := svc.Lookup(tb, "7891000100103"); !ok || desc != "Suco de Uva 1L" {
		t.Errorf("Código numérico deveria casar: %q %v", desc, ok)
	}
	if _, ok, err := svc.Lookup(tb, "999"); ok || err != nil {
		t.Errorf("Código inexistente é aviso, não erro: %v %v", ok, err)
	}

	semCodigo, _ := table.FromRecords([][]string{{"Loja"}, {"A"}})
	if _, _, err := svc.Lookup(semCodigo, "111"); !errors.Is(err, domain.ErrMissingColumn) {
		t.Errorf("Esperava ErrMissingColumn, obteve %v", err)
	}
}

func TestList(t *testing.T) {
	svc, _ := novoServico(t)

	vazio, err := svc.List(context.Background(), remoto)
	if err != nil {
		t.Fatalf("Erro inesperado: %v", err)
	}
	if vazio.Len() != 0 || !reflect.DeepEqual(vazio.Columns(), domain.ColetaHeader) {
		t.Errorf("Lista vazia inesperada: %v", vazio.Records())
	}

	if _, err := svc.Save(context.Background(), remoto, entradaValida()); err != nil {
		t.Fatal(err)
	}
	tb, err := svc.List(context.Background(), remoto)
	if err != nil {
		t.Fatalf("Erro inesperado: %v", err)
	}
	if tb.Len() != 1 {
		t.Errorf("Esperava 1 registro, obteve %d", tb.Len())
	}
}
