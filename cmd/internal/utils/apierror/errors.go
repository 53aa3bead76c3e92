package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse abstracts all API error responses to the user.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int
}

type APIError struct {
	Message string `json:"mensagem"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

// DetailedError carries whatever structured payload an upstream
// provider returned alongside the failure, so callers can diagnose
// which step broke.
type DetailedError struct {
	Message string `json:"mensagem"`
	Details any    `json:"detalhes,omitempty"`
	Status  int    `json:"-"`
}

func (d *DetailedError) Code() int {
	return d.Status
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

var (
	MalformedJSONError  = NewSimple(400, "Corpo JSON malformado")
	InternalServerError = NewSimple(500, "Erro interno do servidor")

	InvalidCPFError    = NewSimple(400, "CPF inválido")
	MissingFieldsError = NewSimple(400, "Todos os campos são obrigatórios.")
	InvalidImageError  = NewSimple(400, "Imagem em formato inválido")

	TokenUnavailableError = NewSimple(500, "Erro ao obter token")
	RegistryDateError     = NewSimple(500, "Registro retornou data de nascimento em formato inesperado")
	VendorAuthError       = NewDetailed(401, "Erro de autenticação com a IDwall", "Token API inválido ou expirado")
)

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	ok := errors.As(err, &ve)
	if !ok {
		return nil
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "Este campo é obrigatório")
		case "min":
			problems[field] = append(problems[field], "Valor muito curto, mínimo: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Valor muito longo, máximo: "+fe.Param())
		case "cpf":
			problems[field] = append(problems[field], "CPF deve conter 11 dígitos")
		case "dataurl":
			problems[field] = append(problems[field], "Imagem deve ser uma data-URL base64")
		case "datetime":
			problems[field] = append(problems[field], "Data deve estar no formato YYYY-MM-DD")

		default:
			problems[field] = append(problems[field], "Valor inválido")
		}
	}

	return &StructuredError{
		Errors: problems,
		Status: http.StatusBadRequest,
	}
}

func NewSimple(status int, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Message: msg}
}

func NewDetailed(status int, msg string, details any) *DetailedError {
	return &DetailedError{Status: status, Message: msg, Details: details}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Status: code,
	}
}
