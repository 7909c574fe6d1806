package validator

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// 入力が不正
var ErrInvalidInput = errors.New("invalid input")

// EchoValidator は echo.Validator の実装（c.Validate から呼ばれる）
type EchoValidator struct {
	v *validator.Validate
}

func New() *EchoValidator {
	v := validator.New()
	//エラーメッセージはjsonのフィールド名で出す
	v.RegisterTagNameFunc(jsonFieldName)
	return &EchoValidator{v: v}
}

func (ev *EchoValidator) Validate(i interface{}) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, ErrInvalidInput.Error()).SetInternal(err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" "+fe.Tag())
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid input: "+strings.Join(fields, ", ")).SetInternal(err)
}

var _ echo.Validator = (*EchoValidator)(nil)
