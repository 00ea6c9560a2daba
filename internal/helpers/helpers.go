package helpers

import (
	"regexp"
	"strings"
	"unicode"
)

const MinPasswordLength = 12

var specialChar = regexp.MustCompile(`[^A-Za-z0-9\s]`)

// PasswordProblems lists every rule the password breaks. An empty result
// means the password is acceptable.
func PasswordProblems(password string) []string {
	var problems []string
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, "must be at least 12 characters long")
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		problems = append(problems, "must contain at least one uppercase letter")
	}
	if !hasLower {
		problems = append(problems, "must contain at least one lowercase letter")
	}
	if !hasDigit {
		problems = append(problems, "must contain at least one number")
	}
	if !specialChar.MatchString(password) {
		problems = append(problems, "must contain at least one special character")
	}
	return problems
}

func IsPasswordStrong(password string) bool {
	return len(PasswordProblems(password)) == 0
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
