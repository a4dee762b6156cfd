// Package main é a linha de comando dos relatórios de validade e de perdas.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/LuisEduardoPedra/perdasValidade/internal/api/responses"
	"github.com/LuisEduardoPedra/perdasValidade/internal/config"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/aggregate"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/filter"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/ingest"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/report"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	lojas          []string
	mercadologicos []string
	descricao      string
	dias           int
	desde          int
	hoje           string
	agrupar        []string
	medida         string
	visao          string
	formato        string
	saida          string
	envFile        string
}

func main() {
	var opts options
	rootCmd := &cobra.Command{
		Use:   "relatorio [arquivo|url]",
		Short: "Gera relatórios de validade e de perdas a partir de uma planilha",
		Long: `relatorio lê uma planilha (.xlsx, .xls ou .csv), local ou por URL, aplica os filtros
e grava o resultado. Sem --agrupar gera o relatório de validade (linhas filtradas);
com --agrupar gera o relatório de perdas agrupado.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	f := rootCmd.Flags()
	f.StringSliceVar(&opts.lojas, "loja", nil, "Lojas a manter (repetível ou separado por vírgula)")
	f.StringSliceVar(&opts.mercadologicos, "mercadologico", nil, "Mercadológicos a manter")
	f.StringVar(&opts.descricao, "descricao", "", "Trecho da descrição do produto")
	f.IntVar(&opts.dias, "dias", 0, "Mantém validades até hoje + dias")
	f.IntVar(&opts.desde, "desde", 0, "Mantém validades a partir de hoje + desde (requer --dias)")
	f.StringVar(&opts.hoje, "hoje", "", "Data de referência dd/mm/aaaa (padrão: data atual)")
	f.StringSliceVar(&opts.agrupar, "agrupar", nil, "Uma ou duas colunas de agrupamento")
	f.StringVar(&opts.medida, "medida", "", "Coluna somada (padrão: Total ou Qtde)")
	f.StringVar(&opts.visao, "visao", string(domain.ViewTotal), "Visão: total ou participacao")
	f.StringVar(&opts.formato, "formato", "csv", "Formato de saída: csv, xlsx, pdf ou json")
	f.StringVarP(&opts.saida, "output", "o", "", "Arquivo de saída (padrão: stdout)")
	f.StringVar(&opts.envFile, "env", ".env", "Arquivo .env com a configuração")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string, opts options) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	log := responses.InitLogger()
	defer log.Sync()

	svc := ingest.NewService(log.Named("ingest"), cfg.FetchTimeout)
	origem := cfg.FonteURL
	if len(args) == 1 {
		origem = args[0]
	}
	t, err := load(cmd.Context(), svc, origem)
	if err != nil {
		return err
	}

	s, _ := table.Resolve(t, nil, table.AllRoles...)
	if len(opts.agrupar) == 0 && s.Has(table.RoleValidade) {
		if t, err = filter.PrepareDates(t, s.Column(table.RoleValidade)); err != nil {
			return err
		}
	}
	spec, err := buildFilter(cmd, t, s, opts)
	if err != nil {
		return err
	}
	filtrada, err := filter.Apply(t, spec)
	if err != nil {
		return err
	}
	log.Info("Filtros aplicados", zap.Int("linhas", t.Len()), zap.Int("filtradas", filtrada.Len()))

	var data []byte
	if len(opts.agrupar) > 0 {
		data, err = perdas(filtrada, s, opts, cfg.TopN)
	} else {
		data, err = validade(filtrada, s, opts)
	}
	if err != nil {
		return err
	}

	if opts.saida == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.saida, data, 0644); err != nil {
		return fmt.Errorf("falha ao gravar %s: %w", opts.saida, err)
	}
	log.Info("Relatório gravado", zap.String("arquivo", opts.saida), zap.Int("bytes", len(data)))
	return nil
}

func load(ctx context.Context, svc ingest.Service, origem string) (*table.Table, error) {
	if strings.HasPrefix(origem, "http://") || strings.HasPrefix(origem, "https://") {
		return svc.FromURL(ctx, origem)
	}
	f, err := os.Open(origem)
	if err != nil {
		return nil, &domain.SourceError{Origem: origem, Err: err}
	}
	defer f.Close()
	return svc.FromUpload(ctx, f, origem)
}

func buildFilter(cmd *cobra.Command, t *table.Table, s table.Schema, opts options) (domain.FilterSpec, error) {
	spec := domain.FilterSpec{Categorias: map[string][]string{}, Textos: map[string]string{}}

	for r, vals := range map[table.Role][]string{
		table.RoleLoja:          opts.lojas,
		table.RoleMercadologico: opts.mercadologicos,
	} {
		if len(vals) == 0 {
			continue
		}
		col, err := column(t, s, string(r))
		if err != nil {
			return spec, err
		}
		spec.Categorias[col] = vals
	}
	if opts.descricao != "" {
		col, err := column(t, s, string(table.RoleDescricao))
		if err != nil {
			return spec, err
		}
		spec.Textos[col] = opts.descricao
	}

	if !cmd.Flags().Changed("dias") {
		return spec, nil
	}
	col, err := column(t, s, string(table.RoleValidade))
	if err != nil {
		return spec, err
	}
	janela := &domain.JanelaValidade{Coluna: col, Dias: opts.dias, Hoje: time.Now()}
	if cmd.Flags().Changed("desde") {
		desde := opts.desde
		janela.DesdeDias = &desde
	}
	if opts.hoje != "" {
		hoje, ok := table.ParseDate(opts.hoje)
		if !ok {
			return spec, fmt.Errorf("%w: data de referência inválida %q", domain.ErrInvalidRequest, opts.hoje)
		}
		janela.Hoje = hoje
	}
	spec.Janela = janela
	return spec, nil
}

// column aceita o rótulo exato da planilha ou o nome de um papel.
func column(t *table.Table, s table.Schema, name string) (string, error) {
	if t.HasColumn(name) {
		return name, nil
	}
	norm := table.NormalizeText(name)
	for _, r := range table.AllRoles {
		if s.Has(r) && table.NormalizeText(string(r)) == norm {
			return s.Column(r), nil
		}
	}
	return "", domain.NewMissingColumnError(name, t.Columns())
}

func validade(t *table.Table, s table.Schema, opts options) ([]byte, error) {
	switch opts.formato {
	case "csv":
		return report.CSV(t, report.CSVOptions{})
	case "xlsx":
		return report.XLSX(t, "Validade")
	case "pdf":
		return report.PDF(t, s, "Relatório de Validade - "+time.Now().Format(table.DateLayout))
	case "json":
		return json.MarshalIndent(t.Records(), "", "  ")
	}
	return nil, fmt.Errorf("%w: formato %q não suportado", domain.ErrInvalidRequest, opts.formato)
}

func perdas(t *table.Table, s table.Schema, opts options, topN int) ([]byte, error) {
	chaves := make([]string, 0, len(opts.agrupar))
	for _, n := range opts.agrupar {
		col, err := column(t, s, n)
		if err != nil {
			return nil, err
		}
		chaves = append(chaves, col)
	}
	medida := opts.medida
	switch {
	case medida != "":
		col, err := column(t, s, medida)
		if err != nil {
			return nil, err
		}
		medida = col
	case s.Has(table.RoleTotal):
		medida = s.Column(table.RoleTotal)
	case s.Has(table.RoleQuantidade):
		medida = s.Column(table.RoleQuantidade)
	default:
		return nil, domain.NewMissingColumnError(string(table.RoleTotal), t.Columns())
	}

	res, err := aggregate.Run(t, chaves, medida, domain.ViewKind(opts.visao))
	if err != nil {
		return nil, err
	}
	switch opts.formato {
	case "csv":
		return report.AggregationCSV(res, report.CSVOptions{})
	case "xlsx":
		return report.AggregationXLSX(res, true, topN)
	case "json":
		return json.MarshalIndent(res, "", "  ")
	}
	return nil, fmt.Errorf("%w: formato %q não suportado no relatório de perdas", domain.ErrInvalidRequest, opts.formato)
}
