package paciente

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicavida/api/internal/util"
)

// PacienteRepository define o acesso a dados usado pelo serviço.
type PacienteRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Paciente, error)
	List(ctx context.Context, busca string, pagina int) (Pagina, error)
	Create(ctx context.Context, params Params) (Paciente, error)
	Update(ctx context.Context, id uuid.UUID, params Params) (Paciente, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service contém as regras de negócio dos pacientes.
type Service struct {
	repo PacienteRepository
}

func NewService(repo PacienteRepository) *Service {
	return &Service{repo: repo}
}

// Get recupera um paciente.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Paciente, error) {
	return s.repo.GetByID(ctx, id)
}

// List devolve uma página de pacientes, filtrada pela busca.
func (s *Service) List(ctx context.Context, busca string, pagina int) (Pagina, error) {
	return s.repo.List(ctx, strings.TrimSpace(busca), pagina)
}

// Create valida e cadastra um paciente.
func (s *Service) Create(ctx context.Context, input CreateInput) (Paciente, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return Paciente{}, err
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return Paciente{}, err
	}
	cpf, err := util.NormalizeCPF(input.CPF)
	if err != nil {
		return Paciente{}, err
	}

	return s.repo.Create(ctx, Params{
		Nome:              strings.TrimSpace(input.Nome),
		Email:             strings.TrimSpace(input.Email),
		CPF:               cpf,
		Genero:            input.Genero,
		Telefone:          input.Telefone,
		Nascimento:        input.Nascimento,
		ContatoEmergencia: input.ContatoEmergencia,
		HistoricoMedico:   input.HistoricoMedico,
	})
}

// Update aplica alterações parciais sobre o cadastro atual.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Paciente, error) {
	atual, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Paciente{}, err
	}

	params := Params{
		Nome:              atual.Nome,
		Email:             atual.Email,
		CPF:               atual.CPF,
		Genero:            atual.Genero,
		Telefone:          atual.Telefone,
		Nascimento:        atual.Nascimento,
		ContatoEmergencia: atual.ContatoEmergencia,
		HistoricoMedico:   atual.HistoricoMedico,
	}

	if input.Nome != nil {
		if err := util.RequireString(*input.Nome, "nome"); err != nil {
			return Paciente{}, err
		}
		params.Nome = strings.TrimSpace(*input.Nome)
	}
	if input.Email != nil {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return Paciente{}, err
		}
		params.Email = strings.TrimSpace(*input.Email)
	}
	if input.CPF != nil {
		cpf, err := util.NormalizeCPF(*input.CPF)
		if err != nil {
			return Paciente{}, err
		}
		params.CPF = cpf
	}
	if input.Genero != nil {
		params.Genero = input.Genero
	}
	if input.Telefone != nil {
		params.Telefone = input.Telefone
	}
	if input.Nascimento != nil {
		params.Nascimento = input.Nascimento
	}
	if input.ContatoEmergencia != nil {
		params.ContatoEmergencia = input.ContatoEmergencia
	}
	if input.HistoricoMedico != nil {
		params.HistoricoMedico = input.HistoricoMedico
	}

	return s.repo.Update(ctx, id, params)
}

// Delete remove o paciente.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
