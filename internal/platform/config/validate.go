package config

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	perr "danmood/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	vOnce  sync.Once
	vInst  *validator.Validate
	vTrans ut.Translator
)

func validatorInst() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// messages name the env key when the field carries one
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if tag := fld.Tag.Get("env"); tag != "" && tag != "-" {
				return tag
			}
			return fld.Name
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vInst, vTrans = v, trans
	})
	return vInst, vTrans
}

// Validate checks struct tags on opts and returns a Validation error naming
// the first offending field
func Validate(opts any) error {
	v, trans := validatorInst()
	err := v.Struct(opts)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "validator misuse")
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return perr.Wrap(err, perr.ErrorCodeValidation, "invalid options")
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, fe.Translate(trans))
	}
	return perr.WithField(
		perr.Newf(perr.ErrorCodeValidation, "invalid options: %s", strings.Join(msgs, "; ")),
		ves[0].Field(),
	)
}
