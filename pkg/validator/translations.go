package validator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// registerPolicyTranslations registers translations for the policy rules.
func (v *Validator) registerPolicyTranslations() {
	if enTrans := v.GetTranslator(LangEN); enTrans != nil {
		v.registerEnglishTranslations(enTrans)
	}
	if zhTrans := v.GetTranslator(LangZH); zhTrans != nil {
		v.registerChineseTranslations(zhTrans)
	}
}

func (v *Validator) registerEnglishTranslations(trans ut.Translator) {
	translations := map[string]string{
		TagEffect:       "{0} must be either permit or deny",
		TagAction:       "{0} must be a lowercase action verb",
		TagULID:         "{0} must be a valid ULID",
		TagScopeRef:     "{0} must be a printable reference without surrounding whitespace",
		TagNoWhitespace: "{0} must not contain whitespace characters",
		TagTrimmed:      "{0} must not have leading or trailing spaces",
	}

	for tag, message := range translations {
		registerTranslation(v.validate, trans, tag, message)
	}
}

func (v *Validator) registerChineseTranslations(trans ut.Translator) {
	translations := map[string]string{
		TagEffect:       "{0}必须是permit或deny",
		TagAction:       "{0}必须是小写的操作动词",
		TagULID:         "{0}必须是有效的ULID",
		TagScopeRef:     "{0}必须是可打印的引用且首尾不能有空白",
		TagNoWhitespace: "{0}不能包含空白字符",
		TagTrimmed:      "{0}不能有前导或尾随空格",
	}

	for tag, message := range translations {
		registerTranslation(v.validate, trans, tag, message)
	}
}

// registerTranslation binds one tag to one translated message template.
func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, message string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	)
}
