package security

import "strings"

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// PasswordStrength is the result of a password strength check
type PasswordStrength struct {
	Length    bool
	Uppercase bool
	Lowercase bool
	Number    bool
	Special   bool
	Score     int
	Strength  string
}

// CheckPasswordStrength scores a password on five criteria.
// Four or more passing criteria is "strong", three is "medium".
func CheckPasswordStrength(password string) PasswordStrength {
	s := PasswordStrength{Length: len([]rune(password)) >= 8}
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			s.Uppercase = true
		case r >= 'a' && r <= 'z':
			s.Lowercase = true
		case r >= '0' && r <= '9':
			s.Number = true
		case strings.ContainsRune(passwordSpecials, r):
			s.Special = true
		}
	}

	for _, ok := range []bool{s.Length, s.Uppercase, s.Lowercase, s.Number, s.Special} {
		if ok {
			s.Score++
		}
	}

	switch {
	case s.Score >= 4:
		s.Strength = "strong"
	case s.Score >= 3:
		s.Strength = "medium"
	default:
		s.Strength = "weak"
	}
	return s
}
