package util

import (
	"errors"
	"testing"
)

func TestNormalizeCPF(t *testing.T) {
	casos := []struct {
		nome    string
		entrada string
		saida   string
		valido  bool
	}{
		{"com máscara", "529.982.247-25", "52998224725", true},
		{"apenas dígitos", "52998224725", "52998224725", true},
		{"dígito verificador errado", "52998224724", "", false},
		{"curto demais", "1234567890", "", false},
		{"todos iguais", "111.111.111-11", "", false},
		{"vazio", "", "", false},
		{"letras", "abc.def.ghi-jk", "", false},
	}

	for _, caso := range casos {
		t.Run(caso.nome, func(t *testing.T) {
			got, err := NormalizeCPF(caso.entrada)
			if caso.valido {
				if err != nil {
					t.Fatalf("esperava CPF válido, obteve erro %v", err)
				}
				if got != caso.saida {
					t.Fatalf("esperava %q, obteve %q", caso.saida, got)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("esperava ValidationError, obteve %v", err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("ana@clinicavida.com.br"); err != nil {
		t.Fatalf("esperava e-mail válido, obteve %v", err)
	}
	for _, entrada := range []string{"", "  ", "ana", "ana@"} {
		if err := ValidateEmail(entrada); err == nil {
			t.Fatalf("esperava erro para %q", entrada)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("12345678"); err != nil {
		t.Fatalf("esperava senha válida, obteve %v", err)
	}
	if err := ValidatePassword("1234567"); err == nil {
		t.Fatalf("esperava erro para senha curta")
	}
}

func TestRequireString(t *testing.T) {
	if err := RequireString("ok", "campo"); err != nil {
		t.Fatalf("esperava valor aceito, obteve %v", err)
	}
	err := RequireString("   ", "nome")
	if err == nil || err.Error() != "nome obrigatório" {
		t.Fatalf("esperava mensagem com o campo, obteve %v", err)
	}
}
