package util

import (
	"net/mail"
	"strings"
)

// ValidationError distingue erros de entrada do usuário de falhas internas.
// Handlers convertem esse tipo em resposta 400 com a mensagem ao usuário.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ValidationError("email inválido")
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ValidationError("senha deve ter pelo menos 8 caracteres")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError(field + " obrigatório")
	}
	return nil
}

// NormalizeCPF remove pontuação e valida os dígitos verificadores.
func NormalizeCPF(cpf string) (string, error) {
	var digits strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	normalized := digits.String()
	if len(normalized) != 11 {
		return "", ValidationError("cpf inválido")
	}

	// CPFs com todos os dígitos iguais passam no cálculo mas são inválidos.
	allEqual := true
	for i := 1; i < 11; i++ {
		if normalized[i] != normalized[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return "", ValidationError("cpf inválido")
	}

	if !checkCPFDigit(normalized, 9) || !checkCPFDigit(normalized, 10) {
		return "", ValidationError("cpf inválido")
	}

	return normalized, nil
}

func checkCPFDigit(cpf string, pos int) bool {
	sum := 0
	weight := pos + 1
	for i := 0; i < pos; i++ {
		sum += int(cpf[i]-'0') * weight
		weight--
	}
	expected := 11 - sum%11
	if expected >= 10 {
		expected = 0
	}
	return int(cpf[pos]-'0') == expected
}
