// Package validation holds the request schemas and turns rule violations
// into field-level errors the frontend can map onto form inputs.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperr "library-portal/pkg/common/errors"
)

// 越南手机号：+84 或 0 开头，后接 9-10 位数字
var phonePattern = regexp.MustCompile(`^(\+84|0)[0-9]{9,10}$`)

// Schema 所有请求结构体在校验前先做归一化
type Schema interface {
	Normalize()
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// 错误字段名使用 json 名称，与前端表单一致
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("vnphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return &Validator{v: v}
}

// Validate 归一化后校验，返回全部字段错误
func (val *Validator) Validate(s Schema) error {
	s.Normalize()

	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.NewValidation(MsgInvalidPayload).WithCause(err)
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe.Namespace(), fe.Tag()),
		})
	}
	return apperr.NewValidation(MsgInvalidPayload, fields...)
}

// ValidPhone 供命令行等非HTTP入口复用
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
