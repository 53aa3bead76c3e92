package utils

import "strings"

const CPFLength = 11

// CleanCPF strips everything that is not a digit, so formatted input
// like "123.456.789-01" can be used as-is.
func CleanCPF(cpf string) string {
	var b strings.Builder
	b.Grow(len(cpf))
	for _, ch := range cpf {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// IsCPFValid reports whether the (already cleaned) CPF has the exact
// expected length. The registry itself is the authority on whether the
// number exists, so no check-digit math is applied here.
func IsCPFValid(cpf string) bool {
	if len(cpf) != CPFLength {
		return false
	}
	return IsOnlyNumbers(cpf)
}

func IsOnlyNumbers(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
