package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Виды ошибок предметной области. Сервисы оборачивают их в DomainError,
// граница HTTP сопоставляет их с кодами ответа.
var (
	ErrNotFound               = fmt.Errorf("запись не найдена")
	ErrBadRequest             = fmt.Errorf("неверный запрос")
	ErrDuplicateName          = fmt.Errorf("запись с таким названием уже существует")
	ErrDuplicateCatalogCode   = fmt.Errorf("код модели оборудования уже используется")
	ErrAttributeNotApplicable = fmt.Errorf("характеристика не применима к типу оборудования")
	ErrAttributeInUse         = fmt.Errorf("характеристика используется моделями оборудования")
	ErrUnitBusy               = fmt.Errorf("оборудование уже участвует в другом процессе")
	ErrInvalidQuantity        = fmt.Errorf("некорректное количество")
	ErrInvalidPrice           = fmt.Errorf("некорректная цена")
	ErrWarrantyViolation      = fmt.Errorf("для ремонта вне гарантии требуется указать стоимость")
	ErrBranchMismatch         = fmt.Errorf("оборудование находится в другом филиале")
	ErrInvalidTransition      = fmt.Errorf("недопустимая смена статуса оборудования")
	ErrInvalidDate            = fmt.Errorf("некорректная дата")
)

// DuplicateAttribute - частный случай DuplicateName для характеристик.
var ErrDuplicateAttribute = fmt.Errorf("%w: характеристика", ErrDuplicateName)

// DomainError несёт вид ошибки и сообщение для пользователя.
type DomainError struct {
	Kind    error
	Message string
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Kind }

func NewDomainError(kind error, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails добавляет в ошибку данные, которые будут отданы клиенту в поле body.
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	e.Details = details
	return e
}

// HttpError - ошибка, готовая к отдаче через API.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

var kindStatus = []struct {
	kind error
	code int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrDuplicateCatalogCode, http.StatusConflict},
	{ErrDuplicateName, http.StatusConflict},
	{ErrAttributeInUse, http.StatusConflict},
	{ErrUnitBusy, http.StatusConflict},
	{ErrBranchMismatch, http.StatusConflict},
	{ErrInvalidTransition, http.StatusConflict},
	{ErrAttributeNotApplicable, http.StatusUnprocessableEntity},
	{ErrInvalidQuantity, http.StatusBadRequest},
	{ErrInvalidPrice, http.StatusBadRequest},
	{ErrWarrantyViolation, http.StatusBadRequest},
	{ErrInvalidDate, http.StatusBadRequest},
	{ErrBadRequest, http.StatusBadRequest},
}

// StatusCode возвращает HTTP-код для ошибки предметной области и false,
// если ошибка не относится ни к одному известному виду.
func StatusCode(err error) (int, bool) {
	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			return ks.code, true
		}
	}
	return http.StatusInternalServerError, false
}

// ToHttpError приводит любую ошибку сервиса к HttpError.
func ToHttpError(err error) *HttpError {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	code, known := StatusCode(err)
	if !known {
		return NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return &HttpError{Code: code, Message: domainErr.Error(), Details: domainErr.Details}
	}
	return &HttpError{Code: code, Message: err.Error()}
}
