package medico

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicavida/api/internal/auth"
	"github.com/clinicavida/api/internal/storage"
	"github.com/clinicavida/api/internal/util"
)

// MedicoRepository define o acesso a dados usado pelo serviço.
type MedicoRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Medico, error)
	List(ctx context.Context, busca string, pagina int) (Pagina, error)
	Create(ctx context.Context, params CreateParams) (Medico, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Medico, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FotoUpload carrega o binário da foto enviada no formulário.
type FotoUpload struct {
	Conteudo    []byte
	ContentType string
}

// Service contém as regras de negócio dos médicos.
type Service struct {
	repo  MedicoRepository
	fotos storage.Storage
}

func NewService(repo MedicoRepository, fotos storage.Storage) *Service {
	return &Service{repo: repo, fotos: fotos}
}

// Get recupera um médico.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Medico, error) {
	return s.repo.GetByID(ctx, id)
}

// List devolve uma página de médicos, filtrada pela busca.
func (s *Service) List(ctx context.Context, busca string, pagina int) (Pagina, error) {
	return s.repo.List(ctx, strings.TrimSpace(busca), pagina)
}

// Create valida a entrada, grava a foto e cria usuário + papel em uma transação.
func (s *Service) Create(ctx context.Context, input CreateInput, foto *FotoUpload) (Medico, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return Medico{}, err
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return Medico{}, err
	}
	cpf, err := util.NormalizeCPF(input.CPF)
	if err != nil {
		return Medico{}, err
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return Medico{}, err
	}
	if err := util.RequireString(input.CRM, "crm"); err != nil {
		return Medico{}, err
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return Medico{}, err
	}

	fotoURL, fotoKey, err := s.uploadFoto(ctx, foto)
	if err != nil {
		return Medico{}, err
	}

	criado, err := s.repo.Create(ctx, CreateParams{
		Nome:       strings.TrimSpace(input.Nome),
		Email:      strings.TrimSpace(input.Email),
		CPF:        cpf,
		SenhaHash:  hash,
		Telefone:   input.Telefone,
		Nascimento: input.Nascimento,
		FotoURL:    fotoURL,
		CRM:        strings.ToUpper(strings.TrimSpace(input.CRM)),
	})
	if err != nil {
		if fotoKey != "" {
			if derr := s.fotos.Delete(ctx, fotoKey); derr != nil {
				log.Warn().Err(derr).Str("key", fotoKey).Msg("medico: falha ao remover foto órfã")
			}
		}
		return Medico{}, err
	}

	return criado, nil
}

// Update aplica alterações parciais; a foto nova é gravada antes de remover a antiga.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput, foto *FotoUpload) (Medico, error) {
	atual, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Medico{}, err
	}

	params := UpdateParams{
		Nome:       atual.Usuario.Nome,
		Email:      atual.Usuario.Email,
		CPF:        atual.Usuario.CPF,
		SenhaHash:  atual.Usuario.SenhaHash,
		Telefone:   atual.Usuario.Telefone,
		Nascimento: atual.Usuario.Nascimento,
		FotoURL:    atual.Usuario.FotoURL,
		CRM:        atual.CRM,
	}

	if input.Nome != nil {
		if err := util.RequireString(*input.Nome, "nome"); err != nil {
			return Medico{}, err
		}
		params.Nome = strings.TrimSpace(*input.Nome)
	}
	if input.Email != nil {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return Medico{}, err
		}
		params.Email = strings.TrimSpace(*input.Email)
	}
	if input.CPF != nil {
		cpf, err := util.NormalizeCPF(*input.CPF)
		if err != nil {
			return Medico{}, err
		}
		params.CPF = cpf
	}
	if input.Senha != nil {
		if err := util.ValidatePassword(*input.Senha); err != nil {
			return Medico{}, err
		}
		hash, err := auth.Hash(*input.Senha)
		if err != nil {
			return Medico{}, err
		}
		params.SenhaHash = hash
	}
	if input.Telefone != nil {
		params.Telefone = input.Telefone
	}
	if input.Nascimento != nil {
		params.Nascimento = input.Nascimento
	}
	if input.CRM != nil {
		if err := util.RequireString(*input.CRM, "crm"); err != nil {
			return Medico{}, err
		}
		params.CRM = strings.ToUpper(strings.TrimSpace(*input.CRM))
	}

	if foto != nil {
		fotoURL, fotoKey, err := s.uploadFoto(ctx, foto)
		if err != nil {
			return Medico{}, err
		}
		fotoAntiga := atual.Usuario.FotoURL
		params.FotoURL = fotoURL

		atualizado, err := s.repo.Update(ctx, id, params)
		if err != nil {
			if derr := s.fotos.Delete(ctx, fotoKey); derr != nil {
				log.Warn().Err(derr).Str("key", fotoKey).Msg("medico: falha ao remover foto órfã")
			}
			return Medico{}, err
		}

		s.deleteFotoURL(ctx, fotoAntiga)
		return atualizado, nil
	}

	return s.repo.Update(ctx, id, params)
}

// Delete exclui médico + usuário e remove a foto em best-effort.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	atual, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.deleteFotoURL(ctx, atual.Usuario.FotoURL)
	return nil
}

func (s *Service) uploadFoto(ctx context.Context, foto *FotoUpload) (*string, string, error) {
	if foto == nil {
		return nil, "", nil
	}

	key, err := storage.NovaChaveFoto("equipe/medicos", foto.ContentType)
	if err != nil {
		return nil, "", err
	}

	res, err := s.fotos.Upload(ctx, storage.UploadInput{
		Key:         key,
		Body:        foto.Conteudo,
		ContentType: foto.ContentType,
	})
	if err != nil {
		return nil, "", err
	}

	return &res.URL, key, nil
}

func (s *Service) deleteFotoURL(ctx context.Context, fotoURL *string) {
	if fotoURL == nil || *fotoURL == "" {
		return
	}
	key := *fotoURL
	if s3, ok := s.fotos.(*storage.S3Storage); ok {
		key = s3.KeyFromURL(*fotoURL)
	}
	if err := s.fotos.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("url", *fotoURL).Msg("medico: falha ao remover foto antiga")
	}
}
