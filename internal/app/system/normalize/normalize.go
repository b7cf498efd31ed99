// Package normalize provides canonical forms for user-entered values
// before they are stored or used in lookups.
package normalize

import "strings"

// Email lowercases and trims an email address. Lookups and the unique
// index both operate on the normalized form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Provider lowercases and trims an auth provider value.
func Provider(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role lowercases and trims a membership role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// InviteToken uppercases and trims an invite token so redemption is
// forgiving about how the 12-character code was typed.
func InviteToken(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
