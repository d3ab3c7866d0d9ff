// Package validator provides a unified validation component based on
// go-playground/validator. It offers global validator initialization,
// policy-specific validation rules, and i18n error messages.
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Language constants for i18n support.
const (
	LangEN = "en"
	LangZH = "zh"
)

// Validator wraps go-playground/validator with policy rules and translation.
type Validator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
	trans    map[string]ut.Translator
	mu       sync.RWMutex
}

var (
	globalValidator *Validator
	once            sync.Once
)

// Global returns the global validator instance, initializing it on first
// use with default settings.
func Global() *Validator {
	once.Do(func() {
		globalValidator = New()
	})
	return globalValidator
}

// SetGlobal replaces the global validator instance. Call during application
// initialization if custom configuration is needed.
func SetGlobal(v *Validator) {
	globalValidator = v
}

// New creates a new Validator instance with default configuration.
func New() *Validator {
	v := &Validator{
		validate: validator.New(),
		trans:    make(map[string]ut.Translator),
	}

	// Use JSON tag names for error field names
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	enLocale := en.New()
	zhLocale := zh.New()
	v.uni = ut.New(enLocale, enLocale, zhLocale)

	enTrans, _ := v.uni.GetTranslator(LangEN)
	_ = en_translations.RegisterDefaultTranslations(v.validate, enTrans)
	v.trans[LangEN] = enTrans

	zhTrans, _ := v.uni.GetTranslator(LangZH)
	_ = zh_translations.RegisterDefaultTranslations(v.validate, zhTrans)
	v.trans[LangZH] = zhTrans

	v.registerPolicyRules()
	v.registerPolicyTranslations()

	return v
}

// Validate validates a struct and returns validation errors.
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// ValidateWithLang validates a struct and returns translated validation errors.
func (v *Validator) ValidateWithLang(s interface{}, lang string) *ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return NewValidationError("unknown", "unknown", err.Error())
	}

	return v.translateErrors(validationErrors, v.GetTranslator(lang))
}

// ValidateVar validates a single variable against a tag expression.
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// GetTranslator returns a translator for the specified language, falling
// back to English.
func (v *Validator) GetTranslator(lang string) ut.Translator {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if trans, ok := v.trans[lang]; ok {
		return trans
	}
	return v.trans[LangEN]
}

// RegisterValidation registers a custom validation function.
func (v *Validator) RegisterValidation(tag string, fn validator.Func, callValidationEvenIfNull ...bool) error {
	return v.validate.RegisterValidation(tag, fn, callValidationEvenIfNull...)
}

// RegisterValidationWithTranslation registers a custom validation together
// with per-language messages.
func (v *Validator) RegisterValidationWithTranslation(
	tag string,
	fn validator.Func,
	translations map[string]string,
) error {
	if err := v.validate.RegisterValidation(tag, fn); err != nil {
		return err
	}

	for lang, message := range translations {
		trans := v.GetTranslator(lang)
		if trans == nil {
			continue
		}
		registerTranslation(v.validate, trans, tag, message)
	}

	return nil
}

// Engine returns the underlying validator.Validate instance. Use this only
// when direct access is absolutely necessary.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// translateErrors translates validation errors to human-readable messages.
func (v *Validator) translateErrors(errs validator.ValidationErrors, trans ut.Translator) *ValidationErrors {
	result := &ValidationErrors{
		Errors: make([]FieldError, 0, len(errs)),
	}

	for _, err := range errs {
		result.Errors = append(result.Errors, FieldError{
			Field:   err.Field(),
			Tag:     err.Tag(),
			Value:   err.Value(),
			Param:   err.Param(),
			Message: err.Translate(trans),
		})
	}

	return result
}

// Struct validates a struct using the global validator.
func Struct(s interface{}) error {
	return Global().Validate(s)
}

// StructWithLang validates a struct with language support using the global
// validator.
func StructWithLang(s interface{}, lang string) *ValidationErrors {
	return Global().ValidateWithLang(s, lang)
}

// Var validates a single variable using the global validator.
func Var(field interface{}, tag string) error {
	return Global().ValidateVar(field, tag)
}
