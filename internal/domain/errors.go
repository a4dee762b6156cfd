package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable indica falha ao baixar ou ler a planilha de origem.
	ErrSourceUnavailable = errors.New("fonte de dados indisponível")
	// ErrMissingColumn indica que uma coluna esperada não existe após a normalização.
	ErrMissingColumn = errors.New("coluna obrigatória ausente")
	// ErrIncompleteForm bloqueia o salvamento de uma coleta com campos em branco.
	ErrIncompleteForm = errors.New("preencha todos os campos antes de salvar")
	// ErrInvalidRequest cobre parâmetros de filtro/agregação malformados.
	ErrInvalidRequest = errors.New("requisição inválida")
)

// SourceError carrega o texto do erro original da leitura/download.
type SourceError struct {
	Origem string
	Remote bool
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrSourceUnavailable.Error(), e.Origem, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// MissingColumnError identifica a coluna ausente e lista as colunas disponíveis.
type MissingColumnError struct {
	Column    string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %q (disponíveis: %s)", ErrMissingColumn.Error(), e.Column, strings.Join(e.Available, ", "))
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// NewMissingColumnError cria um MissingColumnError.
func NewMissingColumnError(column string, available []string) *MissingColumnError {
	return &MissingColumnError{Column: column, Available: available}
}

// IncompleteFormError lista os campos obrigatórios em branco.
type IncompleteFormError struct {
	Campos []string
}

func (e *IncompleteFormError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIncompleteForm.Error(), strings.Join(e.Campos, ", "))
}

func (e *IncompleteFormError) Is(target error) bool {
	return target == ErrIncompleteForm
}
