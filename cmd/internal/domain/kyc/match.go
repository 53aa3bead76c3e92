package kyc

import (
	"strings"
	"unicode"

	"faceid/cmd/internal/domain/entity"

	"golang.org/x/text/unicode/norm"
)

// MinNameLength is the minimum length of a normalized claim name.
// Shorter names are too ambiguous to match anything safely.
const MinNameLength = 10

const (
	findingCPFMatch      = "CPF confere com os dados encontrados."
	findingCPFMismatch   = "CPF não confere."
	findingNameMatch     = "Nome compatível."
	findingNameMismatch  = "Nome não compatível."
	findingBirthMatch    = "Data de nascimento compatível."
	findingBirthMismatch = "Data de nascimento não confere."
)

// Evaluate compares a claimed identity against the vendor-sourced
// personal data and produces the verdict. The verdict only approves
// when all three checks (CPF, name, birth date) pass; findings are
// recorded in that fixed order.
func Evaluate(claim *entity.IdentityClaim, source *entity.PersonalData) *entity.Verdict {
	cpfOk := claim.CPF == source.CPFNumber
	nameOk := NameMatches(claim.Name, source.Name)
	birthOk := BirthDateMatches(claim.BirthDate, source.BirthDate)

	findings := []string{
		pick(cpfOk, findingCPFMatch, findingCPFMismatch),
		pick(nameOk, findingNameMatch, findingNameMismatch),
		pick(birthOk, findingBirthMatch, findingBirthMismatch),
	}

	return &entity.Verdict{
		Findings: findings,
		Approved: cpfOk && nameOk && birthOk,
	}
}

// NameMatches reports whether every term of the claimed name appears
// in the source name after normalization. A normalized claim shorter
// than MinNameLength never matches.
func NameMatches(claimed, source string) bool {
	claimedNorm := Normalize(claimed)
	sourceNorm := Normalize(source)

	if len(claimedNorm) < MinNameLength {
		return false
	}

	for _, term := range strings.Fields(claimedNorm) {
		if !strings.Contains(sourceNorm, term) {
			return false
		}
	}
	return true
}

// BirthDateMatches tolerates the vendor's inconsistent date
// conventions: the source date may come slash- or hyphen-separated,
// and either ISO or day-first ordered, so the claim (ISO, hyphens) is
// compared under all of them.
func BirthDateMatches(claimed, source string) bool {
	sourceHyphens := strings.ReplaceAll(source, "/", "-")
	claimedSlashes := strings.ReplaceAll(claimed, "-", "/")

	if sourceHyphens == claimed ||
		sourceHyphens == claimedSlashes ||
		source == claimedSlashes {
		return true
	}

	parts := strings.Split(sourceHyphens, "-")
	if len(parts) != 3 {
		return false
	}
	reversed := parts[2] + "-" + parts[1] + "-" + parts[0]
	return reversed == claimed
}

// Normalize decomposes the string (NFD), strips everything that is not
// a letter, digit or space (diacritic marks included) and lowercases
// the result.
func Normalize(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func pick(ok bool, pass, fail string) string {
	if ok {
		return pass
	}
	return fail
}
