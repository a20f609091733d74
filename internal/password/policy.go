// Package password checks new passwords against a configurable strength policy.
package password

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/foodgram/apiserver/config"
)

// Policy defines password requirements.
type Policy struct {
	MinLength                int
	RequireUppercase         bool
	RequireLowercase         bool
	RequireDigit             bool
	RequireLetter            bool
	RequireSpecial           bool
	MaxConsecutiveRepeats    int
	ForbidCommonPasswords    bool
	ForbidUsernameSimilarity bool
}

// NewPolicy builds a Policy from configuration.
func NewPolicy(cfg config.PasswordConfig) Policy {
	return Policy{
		MinLength:                cfg.MinLength,
		RequireUppercase:         cfg.RequireUppercase,
		RequireLowercase:         cfg.RequireLowercase,
		RequireDigit:             cfg.RequireDigit,
		RequireLetter:            cfg.RequireLetter,
		RequireSpecial:           cfg.RequireSpecial,
		MaxConsecutiveRepeats:    cfg.MaxConsecutiveRepeats,
		ForbidCommonPasswords:    cfg.ForbidCommonPasswords,
		ForbidUsernameSimilarity: cfg.ForbidUsernameSimilarity,
	}
}

type charClasses struct {
	upper   bool
	lower   bool
	digit   bool
	special bool
}

func analyzeCharClasses(password string) charClasses {
	var cc charClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			cc.upper = true
		case unicode.IsLower(r):
			cc.lower = true
		case unicode.IsDigit(r):
			cc.digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			cc.special = true
		}
	}
	return cc
}

func maxConsecutiveRepeats(password string) int {
	longest, current := 0, 0
	var last rune
	for i, r := range password {
		if i > 0 && r == last {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
		last = r
	}
	return longest
}

// Check returns every rule the password violates. The identities are the
// user's username and email; the password may not resemble either.
// An empty result means the password is acceptable.
func (p Policy) Check(password string, identities ...string) []string {
	var problems []string

	if n := len([]rune(password)); n < p.MinLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", p.MinLength))
	}

	cc := analyzeCharClasses(password)
	if p.RequireUppercase && !cc.upper {
		problems = append(problems, "password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !cc.lower {
		problems = append(problems, "password must contain at least one lowercase letter")
	}
	if p.RequireLetter && !cc.upper && !cc.lower {
		problems = append(problems, "password must contain at least one letter")
	}
	if p.RequireDigit && !cc.digit {
		problems = append(problems, "password must contain at least one digit")
	}
	if p.RequireSpecial && !cc.special {
		problems = append(problems, "password must contain at least one special character")
	}

	if p.MaxConsecutiveRepeats > 0 && maxConsecutiveRepeats(password) > p.MaxConsecutiveRepeats {
		problems = append(problems,
			fmt.Sprintf("password cannot repeat a character more than %d times in a row", p.MaxConsecutiveRepeats))
	}

	if p.ForbidCommonPasswords && isCommon(password) {
		problems = append(problems, "password is too common")
	}

	if p.ForbidUsernameSimilarity {
		for _, identity := range identities {
			if similar(password, identity) {
				problems = append(problems, "password is too similar to your personal information")
				break
			}
		}
	}

	return problems
}

var commonPasswords = map[string]struct{}{
	"123456": {}, "12345678": {}, "123456789": {}, "1234567890": {},
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {},
	"qwerty": {}, "qwerty123": {}, "abc123": {}, "111111": {},
	"letmein": {}, "welcome": {}, "welcome1": {}, "iloveyou": {},
	"admin": {}, "admin123": {}, "monkey": {}, "dragon": {},
	"sunshine": {}, "football": {}, "trustno1": {}, "princess": {},
	"qwertyuiop": {}, "1q2w3e4r": {}, "zaq12wsx": {}, "baseball": {},
}

func isCommon(password string) bool {
	_, ok := commonPasswords[strings.ToLower(password)]
	return ok
}

// similar reports whether password contains identity or the other way
// round, ignoring case. Only the local part of an email is compared.
func similar(password, identity string) bool {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if at := strings.IndexByte(identity, '@'); at > 0 {
		identity = identity[:at]
	}
	if len(identity) < 3 {
		return false
	}
	lower := strings.ToLower(password)
	return strings.Contains(lower, identity) || strings.Contains(identity, lower)
}
