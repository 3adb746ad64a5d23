// Package validator 封装 go-playground/validator，统一请求结构体校验
package validator

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息使用 json 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldErrors 校验结构体，返回 字段 -> 错误描述
func FieldErrors(data interface{}) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	result := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range validationErrors {
			result[fe.Field()] = message(fe)
		}
		return result
	}
	result["_"] = err.Error()
	return result
}

// Struct 校验结构体，失败时返回 ErrInvalidParams
func Struct(data interface{}) error {
	fieldErrs := FieldErrors(data)
	if len(fieldErrs) == 0 {
		return nil
	}
	return errors.ErrInvalidParams.WithMessage(Format(fieldErrs))
}

// Format 按字段名排序拼接错误描述
func Format(fieldErrs map[string]string) string {
	fields := make([]string, 0, len(fieldErrs))
	for f := range fieldErrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f, fieldErrs[f]))
	}
	return strings.Join(msgs, "; ")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必填"
	case "email":
		return "邮箱格式不正确"
	case "min", "gte":
		return fmt.Sprintf("不能小于 %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("不能大于 %s", fe.Param())
	case "gt":
		return fmt.Sprintf("必须大于 %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("必须是 %s 之一", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("日期格式应为 %s", fe.Param())
	default:
		return fmt.Sprintf("校验失败 (%s)", fe.Tag())
	}
}
