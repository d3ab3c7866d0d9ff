// Package options defines the generic options interface and common utilities
// shared by the guard configuration packages.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// RedactedPassword is the placeholder backends substitute for credentials
// when options are serialized or printed.
const RedactedPassword = "[REDACTED]"

// Join concatenates prefixes with "." separator.
// If the result is non-empty, it appends a trailing ".".
// This is used to build flag names like "mysql.host" or "prefix.mysql.host".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// Redact returns RedactedPassword for a non-empty secret and "" otherwise,
// so serialized options reveal whether a credential was set without
// revealing its value.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	return RedactedPassword
}

// IOptions defines methods to implement a generic options.
type IOptions interface {
	// Validate validates all the required options.
	Validate() []error

	// AddFlags adds flags related to given flagset.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}
