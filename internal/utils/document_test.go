package utils

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument_ReferenceCPF(t *testing.T) {
	info := ValidateDocument("05828793705")

	assert.Equal(t, "05828793705", info.Digits)
	assert.Equal(t, KindCPF, info.Kind)
	assert.Equal(t, "058.287.937-05", info.Formatted)
	assert.Equal(t, "05", info.CheckDigits)
	assert.True(t, info.Valid)
	assert.True(t, info.IsDocument())
	assert.Equal(t, "Rio de Janeiro e Espírito Santo", info.Region)
}

func TestValidateDocument_Normalization(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		digits string
		kind   DocumentKind
	}{
		{"formatted cpf", "058.287.937-05", "05828793705", KindCPF},
		{"cpf missing leading zero", "5828793705", "05828793705", KindCPF},
		{"five digits padded", "12345", "00000012345", KindCPF},
		{"twelve digits padded", "222333000181", "00222333000181", KindCNPJ},
		{"formatted cnpj", "11.222.333/0001-81", "11222333000181", KindCNPJ},
		{"four digits", "1234", "", KindUnknown},
		{"fifteen digits", "112223330001811", "", KindUnknown},
		{"no digits", "abc", "", KindUnknown},
		{"empty", "", "", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ValidateDocument(tt.input)
			assert.Equal(t, tt.digits, info.Digits)
			assert.Equal(t, tt.kind, info.Kind)
			if tt.kind == KindUnknown {
				assert.True(t, info.Malformed())
				assert.False(t, info.Valid)
				assert.Empty(t, info.Formatted)
			}
		})
	}
}

func TestValidateDocument_ChecksumInvalidStillFormatted(t *testing.T) {
	info := ValidateDocument("05828793706")

	assert.Equal(t, KindCPF, info.Kind)
	assert.False(t, info.Valid)
	assert.False(t, info.Malformed())
	assert.Equal(t, "058.287.937-06", info.Formatted)
	assert.Equal(t, RegionInvalid, info.Region)
}

func TestValidateDocument_RepeatedDigitsAreInvalid(t *testing.T) {
	for d := 0; d <= 9; d++ {
		cpf := repeat(byte('0'+d), 11)
		cnpj := repeat(byte('0'+d), 14)

		assert.False(t, ValidateDocument(cpf).Valid, cpf)
		assert.Equal(t, RegionInvalid, ValidateDocument(cpf).Region, cpf)
		assert.False(t, ValidateDocument(cnpj).Valid, cnpj)
	}
}

func repeat(b byte, n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return string(out)
}

func TestCheckDigits_RoundTripOnValidCPFs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		base := fmt.Sprintf("%09d", rng.Intn(1_000_000_000))
		dv, err := CheckDigits(base)
		require.NoError(t, err)

		cpf := base + dv
		info := ValidateDocument(cpf)
		if isAllSameDigit(cpf) {
			assert.False(t, info.Valid)
			continue
		}
		require.True(t, info.Valid, cpf)

		again, err := CheckDigits(info.Digits[:9])
		require.NoError(t, err)
		assert.Equal(t, info.Digits[9:], again)
		assert.Contains(t, cpfRegions[:], info.Region)
	}
}

func TestCheckDigits_CNPJ(t *testing.T) {
	dv, err := CheckDigits("112223330001")
	require.NoError(t, err)
	assert.Equal(t, "81", dv)

	_, err = CheckDigits("1234")
	assert.Error(t, err)
}

func TestFormattedIsStableUnderRestripping(t *testing.T) {
	inputs := []string{"05828793705", "5828793705", "12345", "11222333000181", "222333000181", "05828793706"}

	for _, input := range inputs {
		first := ValidateDocument(input)
		require.NotEmpty(t, first.Formatted, input)

		second := ValidateDocument(first.Formatted)
		assert.Equal(t, first.Digits, second.Digits, input)
		assert.Equal(t, first.Valid, second.Valid, input)
	}
}

func TestValidateDocument_CNPJ(t *testing.T) {
	info := ValidateDocument("11.222.333/0001-81")

	assert.True(t, info.Valid)
	assert.Equal(t, KindCNPJ, info.Kind)
	assert.Equal(t, "11.222.333/0001-81", info.Formatted)
	assert.Equal(t, "11222333", info.Root)
	assert.Equal(t, "MATRIZ", info.BranchType)
	assert.Equal(t, RegionUnknown, info.Region)

	assert.False(t, ValidateDocument("11222333000182").Valid)
	assert.Equal(t, "FILIAL", GetCNPJType("11222333000262"))
}

func TestCPFRegion_NeverPanics(t *testing.T) {
	for _, input := range []string{"", "1", "abc", "0582879370", "05828793705", "99999999999"} {
		assert.NotPanics(t, func() { CPFRegion(input) })
	}
	assert.Equal(t, RegionUnknown, CPFRegion("123"))
}

func TestExtractDocumentsFromText(t *testing.T) {
	text := "CPF 058.287.937-05, CNPJ 11.222.333/0001-81, repetido 11222333000181, inválido 12345678900"

	found := ExtractDocumentsFromText(text)

	assert.Equal(t, []string{"05828793705", "11222333000181"}, found)
}

func TestExtractDocumentsFromText_OrderAndBoundaries(t *testing.T) {
	assert.Equal(t, []string{"11222333000181", "05828793705"},
		ExtractDocumentsFromText("first 11222333000181 then 058.287.937-05"))

	assert.Empty(t, ExtractDocumentsFromText("x1058.287.937-05"))
	assert.Empty(t, ExtractDocumentsFromText("058.287.937-051"))
	assert.Empty(t, ExtractDocumentsFromText("911222333000181"))

	assert.Equal(t, []string{"05828793705"}, ExtractDocumentsFromText("(058.287.937-05)"))
}
