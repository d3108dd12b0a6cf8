package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// DocumentKind identifies which taxpayer register a document number belongs to
type DocumentKind string

const (
	KindCPF     DocumentKind = "CPF"
	KindCNPJ    DocumentKind = "CNPJ"
	KindUnknown DocumentKind = "UNKNOWN"
)

const (
	cpfLength  = 11
	cnpjLength = 14

	// RegionInvalid is reported for CPFs that fail the checksum
	RegionInvalid = "Invalid"
	// RegionUnknown is reported for anything that is not a CPF
	RegionUnknown = "Unknown"
)

var nonDigits = regexp.MustCompile(`\D`)

// cpfRegions maps the ninth CPF digit to the fiscal region that issued it
var cpfRegions = [10]string{
	"Rio Grande do Sul",
	"Distrito Federal, Goiás, Mato Grosso, Mato Grosso do Sul e Tocantins",
	"Amazonas, Pará, Roraima, Amapá, Acre e Rondônia",
	"Ceará, Maranhão e Piauí",
	"Paraíba, Pernambuco, Alagoas e Rio Grande do Norte",
	"Bahia e Sergipe",
	"Minas Gerais",
	"Rio de Janeiro e Espírito Santo",
	"São Paulo",
	"Paraná e Santa Catarina",
}

// DocumentInfo holds everything derived from a raw CPF/CNPJ input.
// It is built once by ValidateDocument and never mutated.
type DocumentInfo struct {
	Original    string       `json:"original" example:"058.287.937-05"`
	Digits      string       `json:"digits,omitempty" example:"05828793705"`
	Kind        DocumentKind `json:"kind" example:"CPF"`
	CheckDigits string       `json:"check_digits,omitempty" example:"05"`
	Valid       bool         `json:"valid" example:"true"`
	Formatted   string       `json:"formatted,omitempty" example:"058.287.937-05"`
	Region      string       `json:"region" example:"Rio de Janeiro e Espírito Santo"`
	Root        string       `json:"root,omitempty"`
	BranchType  string       `json:"branch_type,omitempty"`
}

// IsDocument reports whether the input is a well formed document with valid check digits
func (d DocumentInfo) IsDocument() bool {
	return d.Kind != KindUnknown && d.Valid
}

// Malformed reports whether the input could not be normalized to 11 or 14 digits
func (d DocumentInfo) Malformed() bool {
	return d.Kind == KindUnknown
}

// ValidateDocument normalizes, classifies and validates a raw CPF or CNPJ
func ValidateDocument(raw string) DocumentInfo {
	info := DocumentInfo{
		Original: raw,
		Kind:     KindUnknown,
		Region:   RegionUnknown,
	}

	digits, kind := NormalizeDocument(raw)
	if kind == KindUnknown {
		return info
	}

	info.Digits = digits
	info.Kind = kind
	info.CheckDigits = digits[len(digits)-2:]

	switch kind {
	case KindCPF:
		info.Valid = IsValidCPF(digits)
		info.Formatted = FormatCPF(digits)
		info.Region = CPFRegion(digits)
	case KindCNPJ:
		info.Valid = IsValidCNPJ(digits)
		info.Formatted = FormatCNPJ(digits)
		info.Root = GetCNPJRoot(digits)
		info.BranchType = GetCNPJType(digits)
	}

	return info
}

// CleanDocument removes all non-numeric characters
func CleanDocument(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}

// NormalizeDocument strips formatting and left-pads the digits to CPF or CNPJ width.
// Inputs with 5-11 digits become CPFs, 12-14 digits become CNPJs; anything else is KindUnknown.
func NormalizeDocument(raw string) (string, DocumentKind) {
	cleaned := CleanDocument(raw)

	switch n := len(cleaned); {
	case n >= 5 && n <= cpfLength:
		return leftPad(cleaned, cpfLength), KindCPF
	case n > cpfLength && n <= cnpjLength:
		return leftPad(cleaned, cnpjLength), KindCNPJ
	default:
		return "", KindUnknown
	}
}

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// IsValidCPF validates an 11 digit CPF using the official algorithm
func IsValidCPF(cpf string) bool {
	cleaned := CleanDocument(cpf)
	if len(cleaned) != cpfLength || isAllSameDigit(cleaned) {
		return false
	}

	digits := toDigits(cleaned)
	for i := 0; i < 2; i++ {
		if cpfCheckDigit(digits, i) != digits[9+i] {
			return false
		}
	}
	return true
}

// cpfCheckDigit computes check digit i (0 or 1) from the nine digits starting at position i,
// weighted 10 down to 2.
func cpfCheckDigit(digits []int, i int) int {
	return calculateCheckDigit(digits[i:9+i], []int{10, 9, 8, 7, 6, 5, 4, 3, 2})
}

// IsValidCNPJ validates a 14 digit CNPJ using the official algorithm
func IsValidCNPJ(cnpj string) bool {
	cleaned := CleanDocument(cnpj)
	if len(cleaned) != cnpjLength || isAllSameDigit(cleaned) {
		return false
	}

	digits := toDigits(cleaned)
	if calculateCheckDigit(digits[:12], cnpjWeights(12)) != digits[12] {
		return false
	}
	return calculateCheckDigit(digits[:13], cnpjWeights(13)) == digits[13]
}

// cnpjWeights returns the 2..9 weight cycle applied from the rightmost digit
func cnpjWeights(n int) []int {
	weights := make([]int, n)
	for p := 0; p < n; p++ {
		weights[p] = 2 + (n-1-p)%8
	}
	return weights
}

// CheckDigits computes the two check digits for a 9 digit CPF base or a 12 digit CNPJ base
func CheckDigits(base string) (string, error) {
	cleaned := CleanDocument(base)
	digits := toDigits(cleaned)

	switch len(digits) {
	case 9:
		digits = append(digits, 0, 0)
		digits[9] = cpfCheckDigit(digits, 0)
		digits[10] = cpfCheckDigit(digits, 1)
		return fmt.Sprintf("%d%d", digits[9], digits[10]), nil
	case 12:
		first := calculateCheckDigit(digits, cnpjWeights(12))
		digits = append(digits, first)
		second := calculateCheckDigit(digits, cnpjWeights(13))
		return fmt.Sprintf("%d%d", first, second), nil
	default:
		return "", fmt.Errorf("base must have 9 (CPF) or 12 (CNPJ) digits, got %d", len(digits))
	}
}

// FormatCPF formats CPF with dots and dash (XXX.XXX.XXX-XX)
func FormatCPF(cpf string) string {
	cleaned := CleanDocument(cpf)
	if len(cleaned) != cpfLength {
		return cpf
	}

	return cleaned[:3] + "." + cleaned[3:6] + "." + cleaned[6:9] + "-" + cleaned[9:11]
}

// FormatCNPJ formats CNPJ with dots, slash and dash (XX.XXX.XXX/XXXX-XX)
func FormatCNPJ(cnpj string) string {
	cleaned := CleanDocument(cnpj)
	if len(cleaned) != cnpjLength {
		return cnpj // Return original if invalid length
	}

	return cleaned[:2] + "." + cleaned[2:5] + "." + cleaned[5:8] + "/" + cleaned[8:12] + "-" + cleaned[12:14]
}

// CPFRegion returns the issuing region encoded in the ninth digit of a valid CPF
func CPFRegion(cpf string) string {
	cleaned := CleanDocument(cpf)
	if len(cleaned) != cpfLength {
		return RegionUnknown
	}
	if !IsValidCPF(cleaned) {
		return RegionInvalid
	}
	return cpfRegions[cleaned[8]-'0']
}

// isAllSameDigit checks if all digits in the string are the same
func isAllSameDigit(s string) bool {
	if len(s) == 0 {
		return false
	}

	first := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != first {
			return false
		}
	}
	return true
}

func toDigits(s string) []int {
	digits := make([]int, 0, len(s))
	for _, char := range s {
		if char >= '0' && char <= '9' {
			digits = append(digits, int(char-'0'))
		}
	}
	return digits
}

// calculateCheckDigit calculates check digit using given weights
func calculateCheckDigit(digits []int, weights []int) int {
	sum := 0
	for i, digit := range digits {
		sum += digit * weights[i]
	}

	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

// formatted CNPJ, formatted CPF, bare CNPJ, bare CPF; leftmost-first
var documentPattern = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}|\d{3}\.\d{3}\.\d{3}-\d{2}|\d{14}|\d{11}`)

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

// ExtractDocumentsFromText finds every valid CPF and CNPJ in text, formatted or not.
// Results are digit strings in order of first appearance, without duplicates.
// Candidates glued to other digits are ignored.
func ExtractDocumentsFromText(text string) []string {
	var found []string
	seen := make(map[string]bool)

	for _, loc := range documentPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if (start > 0 && isDigitByte(text[start-1])) || (end < len(text) && isDigitByte(text[end])) {
			continue
		}

		info := ValidateDocument(text[start:end])
		if !info.IsDocument() || seen[info.Digits] {
			continue
		}
		seen[info.Digits] = true
		found = append(found, info.Digits)
	}

	return found
}

// GetCNPJType returns the type of CNPJ (MATRIZ or FILIAL)
func GetCNPJType(cnpj string) string {
	cleaned := CleanDocument(cnpj)
	if len(cleaned) != cnpjLength {
		return "INVALID"
	}

	// The branch number is positions 8-11 (0-indexed)
	if cleaned[8:12] == "0001" {
		return "MATRIZ"
	}
	return "FILIAL"
}

// GetCNPJRoot returns the root CNPJ (first 8 digits)
func GetCNPJRoot(cnpj string) string {
	cleaned := CleanDocument(cnpj)
	if len(cleaned) != cnpjLength {
		return ""
	}

	return cleaned[:8]
}
