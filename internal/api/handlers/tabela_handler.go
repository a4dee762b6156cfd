// internal/api/handlers/tabela_handler.go
package handlers

import (
	"net/http"

	"github.com/LuisEduardoPedra/perdasValidade/internal/api/responses"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/filter"
	"github.com/LuisEduardoPedra/perdasValidade/internal/core/table"
	"github.com/gin-gonic/gin"
)

// TabelaHandler expõe as colunas e os valores distintos da planilha carregada.
type TabelaHandler struct {
	loader *SourceLoader
}

// NewTabelaHandler cria um novo handler de tabela.
func NewTabelaHandler(loader *SourceLoader) *TabelaHandler {
	return &TabelaHandler{loader: loader}
}

// HandleColunas devolve as colunas (já aparadas), o número de linhas e o schema resolvido.
func (h *TabelaHandler) HandleColunas(c *gin.Context) {
	t, src, err := h.loader.Load(c)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	s, _ := table.Resolve(t, nil, table.AllRoles...)
	c.JSON(http.StatusOK, gin.H{
		"fonte":   src,
		"colunas": t.Columns(),
		"linhas":  t.Len(),
		"schema":  s.Mapping(),
	})
}

// HandleValores devolve os valores distintos de uma coluna, para montar filtros.
func (h *TabelaHandler) HandleValores(c *gin.Context) {
	t, _, err := h.loader.Load(c)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	nome := formValue(c, "coluna")
	if nome == "" {
		responses.Error(c, http.StatusBadRequest, "Informe a coluna")
		return
	}
	s, _ := table.Resolve(t, nil, table.AllRoles...)
	col, err := resolveColumn(t, s, nome)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	valores, err := filter.Distinct(t, col)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coluna": col, "valores": valores})
}
