package checkout

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shoplane/storefront-core/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-core/pkg/errors"
	"github.com/shoplane/storefront-core/pkg/types"
	"github.com/shopspring/decimal"
)

var (
	// Tolerant of separators: digits with optional +, spaces, dashes,
	// dots and parentheses.
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 .\-()]{5,18}[0-9]$`)
	// Alphanumeric postal codes with optional inner space or dash.
	postalPattern = regexp.MustCompile(`^[A-Za-z0-9]{2,5}([ -]?[A-Za-z0-9]{1,5})?$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	mustRegister(v, "phonefmt", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "postalcode", func(fl validator.FieldLevel) bool {
		return postalPattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// ShippingOptions is the fixed shipping method set offered at checkout.
var ShippingOptions = []types.ShippingOption{
	{Value: "standard", Label: "Standard (3-5 business days)", Cost: decimal.New(599, -2)},
	{Value: "express", Label: "Express (1-2 business days)", Cost: decimal.New(1299, -2)},
	{Value: "overnight", Label: "Overnight", Cost: decimal.New(1999, -2)},
}

// ShippingOptionByValue looks up a shipping option by its value.
func ShippingOptionByValue(value string) (types.ShippingOption, bool) {
	for _, opt := range ShippingOptions {
		if opt.Value == value {
			return opt, true
		}
	}
	return types.ShippingOption{}, false
}

// ValidateShippingDetails checks the shipping section, reporting every
// failing field in the error details.
func ValidateShippingDetails(details types.ShippingDetails) error {
	err := validate.Struct(details)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		fields := map[string]string{}
		for _, fieldErr := range errs {
			fields[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping details are invalid").WithDetails(fields)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shipping details are invalid")
}

// ValidateShippingOption checks the shipping method section.
func ValidateShippingOption(value string) error {
	if strings.TrimSpace(value) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping method is required")
	}
	if _, ok := ShippingOptionByValue(value); !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown shipping method %q", value))
	}
	return nil
}

// ValidatePaymentMethod checks the payment section.
func ValidatePaymentMethod(method enums.PaymentMethod) error {
	if strings.TrimSpace(method.String()) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", method))
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	case "phonefmt":
		return "must be a valid phone number"
	case "postalcode":
		return "must be a valid postal code"
	}
	return "is invalid"
}
