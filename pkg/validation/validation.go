package validation

import (
	"errors"
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const DefaultIdempotencyKeyMin = 8

// MaxMoney is the largest amount a numeric(14,2) column holds.
var MaxMoney = decimal.RequireFromString("999999999999.99")

var idempotencyKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_\-:.]+$`)

// Register installs the money and idempotency_key rules on gin's validator.
func Register(minKeyLen int) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return RegisterOn(v, minKeyLen)
}

func RegisterOn(v *validator.Validate, minKeyLen int) error {
	if minKeyLen <= 0 {
		minKeyLen = DefaultIdempotencyKeyMin
	}

	// decimals are validated through their string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		return IsMoney(fl.Field().String())
	}); err != nil {
		return err
	}

	return v.RegisterValidation("idempotency_key", func(fl validator.FieldLevel) bool {
		key := fl.Field().String()
		return len(key) >= minKeyLen && len(key) <= 128 && idempotencyKeyPattern.MatchString(key)
	})
}

// IsMoney reports whether s is a positive amount with at most two decimal
// places that fits in MaxMoney.
func IsMoney(s string) bool {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return d.IsPositive() && d.Equal(d.Round(2)) && d.LessThanOrEqual(MaxMoney)
}
