package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"nibog/shared/failure"
	"regexp"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var validate *val.Validate

var (
	transactionIDPattern = regexp.MustCompile(`^NIBOG_[A-Za-z0-9-]+_\d{10,}$`)
	indianPhonePattern   = regexp.MustCompile(`^(?:\+?91|0)?[6-9]\d{9}$`)
)

func validateTransactionID(field val.FieldLevel) bool {
	return transactionIDPattern.MatchString(field.Field().String())
}

// validateIndianPhone accepts 10-digit mobiles with an optional +91/91/0 prefix; spaces and dashes are ignored.
func validateIndianPhone(field val.FieldLevel) bool {
	phone := strings.NewReplacer(" ", "", "-", "").Replace(field.Field().String())

	return indianPhonePattern.MatchString(phone)
}

func init() {
	validate = val.New(val.WithRequiredStructEnabled())

	err := validate.RegisterValidation("empty", func(fl val.FieldLevel) bool {
		return fl.Field().IsZero()
	})
	if err != nil {
		panic(err)
	}

	if err = validate.RegisterValidation("txnid", validateTransactionID); err != nil {
		panic(err)
	}

	if err = validate.RegisterValidation("indianphone", validateIndianPhone); err != nil {
		panic(err)
	}
}

// Validate decodes the JSON body from r into data and validates it.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)
	err := decoder.Decode(data)

	if err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	err := validate.Struct(data)

	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	err := validate.Var(field, tag)

	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}
