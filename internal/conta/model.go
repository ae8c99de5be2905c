package conta

import (
	"time"

	"github.com/google/uuid"
)

// Usuario carrega os campos de identidade compartilhados por todos os papéis
// da equipe. Cada admin, médico ou recepcionista referencia exatamente um
// usuário; o usuário nunca existe sem o papel correspondente.
type Usuario struct {
	ID         uuid.UUID  `json:"id"`
	Nome       string     `json:"nome"`
	Email      string     `json:"email"`
	CPF        string     `json:"cpf"`
	SenhaHash  string     `json:"-"`
	Telefone   *string    `json:"telefone,omitempty"`
	Nascimento *time.Time `json:"nascimento,omitempty"`
	FotoURL    *string    `json:"foto_url,omitempty"`
	CriadoEm   time.Time  `json:"criado_em"`
}

// Perfil agrega o usuário aos vínculos de papel existentes.
type Perfil struct {
	Usuario         Usuario    `json:"usuario"`
	Roles           []string   `json:"roles"`
	AdminID         *uuid.UUID `json:"admin_id,omitempty"`
	Master          bool       `json:"master"`
	MedicoID        *uuid.UUID `json:"medico_id,omitempty"`
	RecepcionistaID *uuid.UUID `json:"recepcionista_id,omitempty"`
}
