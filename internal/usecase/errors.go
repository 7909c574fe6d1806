package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind はエラーの分類（ステータスとは別にログやテストで見る）
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindAuthorization ErrorKind = "authorization"
	KindBusinessRule  ErrorKind = "business_rule"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindPersistence   ErrorKind = "persistence"
)

// 注文パイプラインの拒否理由。errors.Is で判定できる
var (
	ErrMissingFields            = errors.New("missing required order details")
	ErrVendorNotFound           = errors.New("vendor not found")
	ErrInvalidMenuItem          = errors.New("invalid menu item")
	ErrMenuItemUnavailable      = errors.New("menu item not available")
	ErrQuantityTooLarge         = errors.New("quantity too large")
	ErrTotalTooLarge            = errors.New("total amount too large")
	ErrUnsupportedPaymentMethod = errors.New("invalid payment method")
	ErrTotalMismatch            = errors.New("total amount mismatch")
	ErrUserNotFound             = errors.New("user not found")
	ErrInsufficientBalance      = errors.New("insufficient wallet balance")
	ErrInvalidTransition        = errors.New("invalid status transition")
	ErrPersistence              = errors.New("persistence error")
)

// HTTPError はhandlerがそのままレスポンスにするエラー
type HTTPError struct {
	Status  int
	Message string
	Kind    ErrorKind
	Err     error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
		Kind:    kindOf(status),
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func kindOf(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusForbidden:
		return KindAuthorization
	case http.StatusUnauthorized:
		return KindUnauthorized
	}
	return KindPersistence
}

func validationError(cause error, message string) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: message, Kind: KindValidation, Err: cause}
}

func notFoundError(cause error, message string) error {
	return &HTTPError{Status: http.StatusNotFound, Message: message, Kind: KindNotFound, Err: cause}
}

func authorizationError(cause error, message string) error {
	return &HTTPError{Status: http.StatusForbidden, Message: message, Kind: KindAuthorization, Err: cause}
}

func businessRuleError(cause error, message string) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: message, Kind: KindBusinessRule, Err: cause}
}

// 中身はクライアントに見せない
func persistenceError(cause error) error {
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Message: "server error",
		Kind:    KindPersistence,
		Err:     fmt.Errorf("%w: %w", ErrPersistence, cause),
	}
}

// tx内で作ったHTTPErrorはそのまま、それ以外はpersistenceにする
func asUsecaseError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return persistenceError(err)
}
