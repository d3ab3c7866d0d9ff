package validator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Custom validation tags for policy payloads.
const (
	TagEffect       = "effect"       // Policy effect (permit or deny)
	TagAction       = "actionname"   // Action verb (lowercase, e.g. "read", "update")
	TagULID         = "ulid"         // Record identifier (26-char ULID)
	TagScopeRef     = "scoperef"     // Principal/securable reference string
	TagNoWhitespace = "nowhitespace" // No whitespace characters
	TagTrimmed      = "trimmed"      // No leading or trailing spaces
)

var (
	actionRegex = regexp.MustCompile(`^[a-z][a-z0-9]*([-_][a-z0-9]+)*$`)
	ulidRegex   = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
)

// registerPolicyRules registers the policy validation rules.
func (v *Validator) registerPolicyRules() {
	_ = v.validate.RegisterValidation(TagEffect, validateEffect)
	_ = v.validate.RegisterValidation(TagAction, validateAction)
	_ = v.validate.RegisterValidation(TagULID, validateULID)
	_ = v.validate.RegisterValidation(TagScopeRef, validateScopeRef)
	_ = v.validate.RegisterValidation(TagNoWhitespace, validateNoWhitespace)
	_ = v.validate.RegisterValidation(TagTrimmed, validateTrimmed)
}

// validateEffect checks that a policy effect is permit or deny.
func validateEffect(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return value == "permit" || value == "deny"
}

// validateAction checks action verb format: lowercase, starting with a
// letter, with optional hyphen or underscore separators.
func validateAction(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return actionRegex.MatchString(value)
}

// validateULID checks Crockford base32 ULID format.
func validateULID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return ulidRegex.MatchString(value)
}

// validateScopeRef checks a principal or securable reference: printable,
// no control characters, no surrounding whitespace. Empty means wildcard
// and is always accepted.
func validateScopeRef(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	if value != strings.TrimSpace(value) {
		return false
	}
	for _, char := range value {
		if unicode.IsControl(char) {
			return false
		}
	}
	return len(value) <= 256
}

// validateNoWhitespace checks that the string contains no whitespace.
func validateNoWhitespace(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	for _, char := range value {
		if unicode.IsSpace(char) {
			return false
		}
	}
	return true
}

// validateTrimmed checks that the string has no leading or trailing
// whitespace.
func validateTrimmed(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return value == strings.TrimSpace(value)
}
