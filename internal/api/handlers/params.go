// internal/api/handlers/params.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LuisEduardoPedra/perdasValidade/internal/core/report"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/gin-gonic/gin"
)

// formValues devolve os valores não vazios de um campo repetido ("loja=A&loja=B").
// Um único valor separado por vírgulas também é aceito.
func formValues(c *gin.Context, key string) []string {
	raw := c.PostFormArray(key)
	if len(raw) == 0 {
		raw = c.QueryArray(key)
	}
	var out []string
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func formValue(c *gin.Context, key string) string {
	if v, ok := c.GetPostForm(key); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(c.Query(key))
}

// roleColumn devolve a coluna do papel ou MissingColumnError.
func roleColumn(t *table.Table, s table.Schema, r table.Role) (string, error) {
	if col := s.Column(r); col != "" {
		return col, nil
	}
	return "", domain.NewMissingColumnError(string(r), t.Columns())
}

// resolveColumn aceita o rótulo exato ou o nome de um papel conhecido.
func resolveColumn(t *table.Table, s table.Schema, name string) (string, error) {
	if t.HasColumn(name) {
		return name, nil
	}
	if col := s.Column(table.Role(name)); col != "" {
		return col, nil
	}
	for _, r := range table.AllRoles {
		if table.NormalizeText(string(r)) == table.NormalizeText(name) && s.Has(r) {
			return s.Column(r), nil
		}
	}
	return "", domain.NewMissingColumnError(name, t.Columns())
}

// parseFilter monta o FilterSpec a partir dos campos loja, mercadologico, descricao,
// codigo, dias, desde e hoje, além de filtros livres texto[Coluna]=trecho.
func parseFilter(c *gin.Context, t *table.Table, s table.Schema) (domain.FilterSpec, error) {
	spec := domain.FilterSpec{
		Categorias: map[string][]string{},
		Textos:     map[string]string{},
	}

	categorias := []struct {
		campo string
		role  table.Role
	}{
		{"loja", table.RoleLoja},
		{"mercadologico", table.RoleMercadologico},
		{"motivo", table.RoleMotivo},
	}
	for _, cat := range categorias {
		vals := formValues(c, cat.campo)
		if len(vals) == 0 {
			continue
		}
		col, err := roleColumn(t, s, cat.role)
		if err != nil {
			return spec, err
		}
		spec.Categorias[col] = vals
	}

	textos := []struct {
		campo string
		role  table.Role
	}{
		{"descricao", table.RoleDescricao},
		{"codigo", table.RoleCodigoBarras},
	}
	for _, tx := range textos {
		v := formValue(c, tx.campo)
		if v == "" {
			continue
		}
		col, err := roleColumn(t, s, tx.role)
		if err != nil {
			return spec, err
		}
		spec.Textos[col] = v
	}
	for name, v := range c.PostFormMap("texto") {
		if strings.TrimSpace(v) == "" {
			continue
		}
		col, err := resolveColumn(t, s, name)
		if err != nil {
			return spec, err
		}
		spec.Textos[col] = v
	}

	if raw := formValue(c, "dias"); raw != "" {
		dias, err := strconv.Atoi(raw)
		if err != nil {
			return spec, fmt.Errorf("%w: dias deve ser um número inteiro", domain.ErrInvalidRequest)
		}
		col, err := roleColumn(t, s, table.RoleValidade)
		if err != nil {
			return spec, err
		}
		janela := &domain.JanelaValidade{Coluna: col, Dias: dias, Hoje: time.Now()}
		if raw := formValue(c, "desde"); raw != "" {
			desde, err := strconv.Atoi(raw)
			if err != nil {
				return spec, fmt.Errorf("%w: desde deve ser um número inteiro", domain.ErrInvalidRequest)
			}
			janela.DesdeDias = &desde
		}
		if raw := formValue(c, "hoje"); raw != "" {
			hoje, ok := table.ParseDate(raw)
			if !ok {
				return spec, fmt.Errorf("%w: data de referência inválida %q", domain.ErrInvalidRequest, raw)
			}
			janela.Hoje = hoje
		}
		spec.Janela = janela
	}
	return spec, nil
}

// formato lê o formato de saída, validando contra os permitidos.
func formato(c *gin.Context, permitidos ...string) (string, error) {
	f := strings.ToLower(formValue(c, "formato"))
	if f == "" {
		return permitidos[0], nil
	}
	for _, p := range permitidos {
		if f == p {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: formato %q não suportado (use %s)", domain.ErrInvalidRequest, f, strings.Join(permitidos, ", "))
}

// sendFile envia o arquivo como anexo, no padrão <prefixo>_<data>.<ext>.
func sendFile(c *gin.Context, prefixo, ext, contentType string, data []byte) {
	fileName := fmt.Sprintf("%s_%s.%s", prefixo, time.Now().Format("20060102_150405"), ext)
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if contentType == report.ContentTypeCSV {
		contentType += "; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, data)
}

// rowsAsMaps converte as linhas em objetos coluna → valor para a resposta JSON.
func rowsAsMaps(t *table.Table) []map[string]string {
	cols := t.Columns()
	rows := t.Rows()
	out := make([]map[string]string, len(rows))
	for i, r := range rows {
		m := make(map[string]string, len(cols))
		for j, col := range cols {
			m[col] = r[j]
		}
		out[i] = m
	}
	return out
}
