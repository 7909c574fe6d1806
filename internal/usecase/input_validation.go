package usecase

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// 入力構造体の validate タグを見る（*validator.Validate は並行利用OK）
var inputValidator = validator.New()

// firstFieldError は最初に落ちた項目を返す
func firstFieldError(err error) (validator.FieldError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return nil, false
	}
	return verrs[0], true
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
