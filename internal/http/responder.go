package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/example/lab-booking/internal/application"
	"github.com/example/lab-booking/internal/logging"
	"github.com/example/lab-booking/internal/scheduler"
)

var (
	errBadRequestBody = errors.New("Corpo da requisição inválido.")
	errMissingToken   = errors.New("Informe o token de autenticação.")
	errInvalidToken   = errors.New("Token de autenticação inválido ou expirado.")
	errInvalidPeriods = errors.New("Aulas devem ser números separados por vírgula.")
	errInvalidFormat  = errors.New("Formato de exportação não suportado.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(c echo.Context, status int, payload any) error {
	if status == http.StatusNoContent || payload == nil {
		return c.NoContent(status)
	}
	return c.JSON(status, payload)
}

func (r responder) writeError(c echo.Context, status int, err error) error {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(c).ErrorContext(c.Request().Context(), "request failed", "status", status, "error", err)
	}
	return r.writeJSON(c, status, errorResponse{Message: message})
}

func (r responder) writeFieldError(c echo.Context, field string, err error) error {
	return r.writeJSON(c, http.StatusUnprocessableEntity, errorResponse{
		Message: localizedStatusMessage(http.StatusUnprocessableEntity),
		Errors:  map[string]string{field: err.Error()},
	})
}

func (r responder) handleServiceError(c echo.Context, err error) error {
	if err == nil {
		return r.writeError(c, http.StatusInternalServerError, errors.New("unknown error"))
	}

	var slotErr *application.SlotConflictError
	if errors.As(err, &slotErr) {
		return r.writeJSON(c, http.StatusConflict, errorResponse{
			ErrorCode:   "SLOT_UNAVAILABLE",
			Message:     "As aulas " + slotErr.Periods.String() + " já estão ocupadas nesta data.",
			Conflicting: slotErr.Periods.Ints(),
		})
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		return r.writeJSON(c, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   localizedStatusMessage(http.StatusForbidden),
		})
	case errors.Is(err, application.ErrNotFound):
		return r.writeJSON(c, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	case errors.Is(err, application.ErrAlreadyExists):
		return r.writeJSON(c, http.StatusConflict, errorResponse{
			ErrorCode: "DUPLICATE_REQUEST",
			Message:   "Já existe uma solicitação pendente idêntica.",
		})
	case errors.Is(err, application.ErrConflict):
		return r.writeJSON(c, http.StatusConflict, errorResponse{
			ErrorCode: "SLOT_UNAVAILABLE",
			Message:   "As aulas solicitadas já estão ocupadas nesta data.",
		})
	case errors.Is(err, application.ErrInvalidState):
		return r.writeJSON(c, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_STATE",
			Message:   "A solicitação não está mais pendente.",
		})
	case errors.Is(err, application.ErrBusy):
		c.Response().Header().Set("Retry-After", "1")
		return r.writeJSON(c, http.StatusServiceUnavailable, errorResponse{
			ErrorCode: "SLOT_BUSY",
			Message:   localizedStatusMessage(http.StatusServiceUnavailable),
		})
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return r.writeJSON(c, http.StatusUnprocessableEntity, errorResponse{
			Message: localizedStatusMessage(http.StatusUnprocessableEntity),
			Errors:  localizeValidationErrors(vErr),
		})
	}

	r.loggerFor(c).ErrorContext(c.Request().Context(), "unexpected service error", "error", err)
	return r.writeJSON(c, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
}

func (r responder) loggerFor(c echo.Context) *slog.Logger {
	return logging.FromContextOr(c.Request().Context(), r.logger)
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requisição inválida."
	case http.StatusUnauthorized:
		return "Autenticação necessária."
	case http.StatusForbidden:
		return "Você não tem permissão para executar esta operação."
	case http.StatusNotFound:
		return "Recurso não encontrado."
	case http.StatusConflict:
		return "A requisição conflita com o estado atual do recurso."
	case http.StatusUnprocessableEntity:
		return "Dados de entrada inválidos."
	case http.StatusServiceUnavailable:
		return "O horário está sendo reservado por outra pessoa. Tente novamente."
	default:
		return "Erro interno do servidor."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "room is required":
		return "Informe o laboratório."
	case "name is required":
		return "Informe o nome do laboratório."
	case "capacity must not be negative":
		return "A capacidade não pode ser negativa."
	case "description is required":
		return "Informe a descrição."
	case "date is required":
		return "Informe a data."
	case "date must use the YYYY-MM-DD format":
		return "A data deve estar no formato AAAA-MM-DD."
	case "date must not be in the past":
		return "A data não pode estar no passado."
	case "weekday must be between 0 (Monday) and 6 (Sunday)":
		return "O dia da semana deve estar entre 0 (segunda) e 6 (domingo)."
	case "valid_until must not be before valid_from":
		return "O fim da vigência não pode ser anterior ao início."
	case "room cannot be changed":
		return "O laboratório de um horário fixo não pode ser alterado."
	case "decision must be approve or reject":
		return "A decisão deve ser aprovar ou rejeitar."
	case "record violates a storage constraint":
		return "O registro viola uma restrição de armazenamento."
	}
	switch {
	case strings.HasPrefix(message, scheduler.ErrInvalidPeriod.Error()):
		return "Selecione ao menos uma aula válida."
	case strings.HasPrefix(message, scheduler.ErrInvalidRange.Error()):
		return "A data inicial deve ser anterior ou igual à data final."
	case strings.HasPrefix(message, "range must not exceed"):
		return "O intervalo não pode exceder " + strings.TrimSuffix(strings.TrimPrefix(message, "range must not exceed "), " days") + " dias."
	}
	return message
}

type errorResponse struct {
	ErrorCode   string            `json:"error_code,omitempty"`
	Message     string            `json:"message"`
	Errors      map[string]string `json:"errors,omitempty"`
	Conflicting []int             `json:"conflicting,omitempty"`
}
