// internal/api/responses/errors.go
package responses

import (
	"errors"
	"net/http"

	"github.com/LuisEduardoPedra/perdasValidade/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorBody é o corpo JSON de todas as respostas de erro.
type ErrorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Error interrompe a requisição com o status e a mensagem informados.
func Error(c *gin.Context, status int, message string, details ...string) {
	if status >= http.StatusInternalServerError {
		Logger().Error(message, zap.Int("status", status), zap.Strings("details", details), zap.String("path", c.FullPath()))
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: message, Details: details})
}

// FromError traduz os erros do domínio para o status HTTP correspondente.
func FromError(c *gin.Context, err error) {
	var (
		src     *domain.SourceError
		missing *domain.MissingColumnError
		inc     *domain.IncompleteFormError
	)
	switch {
	case errors.As(err, &src):
		status := http.StatusBadRequest
		if src.Remote {
			status = http.StatusBadGateway
		}
		Error(c, status, "Não foi possível carregar a planilha", err.Error())
	case errors.As(err, &missing):
		Error(c, http.StatusUnprocessableEntity, "Coluna obrigatória ausente: "+missing.Column, missing.Available...)
	case errors.As(err, &inc):
		Error(c, http.StatusUnprocessableEntity, domain.ErrIncompleteForm.Error(), inc.Campos...)
	case errors.Is(err, domain.ErrInvalidRequest):
		Error(c, http.StatusBadRequest, "Parâmetros inválidos", err.Error())
	default:
		Error(c, http.StatusInternalServerError, "Erro interno ao processar a requisição", err.Error())
	}
}
