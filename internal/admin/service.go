package admin

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicavida/api/internal/auth"
	"github.com/clinicavida/api/internal/storage"
	"github.com/clinicavida/api/internal/util"
)

// AdminRepository define o acesso a dados usado pelo serviço.
type AdminRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Admin, error)
	List(ctx context.Context, busca string, pagina int) (Pagina, error)
	Create(ctx context.Context, params CreateParams) (Admin, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Admin, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountMasters(ctx context.Context) (int64, error)
}

// FotoUpload carrega o binário da foto enviada no formulário.
type FotoUpload struct {
	Conteudo    []byte
	ContentType string
}

// Service contém as regras de negócio dos administradores.
type Service struct {
	repo  AdminRepository
	fotos storage.Storage
}

func NewService(repo AdminRepository, fotos storage.Storage) *Service {
	return &Service{repo: repo, fotos: fotos}
}

// podeRemoverMaster centraliza a invariante global: deve existir ao menos um
// administrador master no sistema. Chamado tanto na exclusão quanto no
// rebaixamento, para que os dois caminhos nunca divirjam.
func podeRemoverMaster(mastersAtuais int64) bool {
	return mastersAtuais > 1
}

// Get recupera um administrador.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Admin, error) {
	return s.repo.GetByID(ctx, id)
}

// List devolve uma página de administradores, filtrada pela busca.
func (s *Service) List(ctx context.Context, busca string, pagina int) (Pagina, error) {
	return s.repo.List(ctx, strings.TrimSpace(busca), pagina)
}

// Create valida a entrada, grava a foto e cria usuário + papel em uma transação.
func (s *Service) Create(ctx context.Context, input CreateInput, foto *FotoUpload) (Admin, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return Admin{}, err
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return Admin{}, err
	}
	cpf, err := util.NormalizeCPF(input.CPF)
	if err != nil {
		return Admin{}, err
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return Admin{}, err
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return Admin{}, err
	}

	fotoURL, fotoKey, err := s.uploadFoto(ctx, foto)
	if err != nil {
		return Admin{}, err
	}

	criado, err := s.repo.Create(ctx, CreateParams{
		Nome:       strings.TrimSpace(input.Nome),
		Email:      strings.TrimSpace(input.Email),
		CPF:        cpf,
		SenhaHash:  hash,
		Telefone:   input.Telefone,
		Nascimento: input.Nascimento,
		FotoURL:    fotoURL,
		Master:     input.Master,
	})
	if err != nil {
		// Compensação: a transação não cobre o blob já gravado.
		if fotoKey != "" {
			if derr := s.fotos.Delete(ctx, fotoKey); derr != nil {
				log.Warn().Err(derr).Str("key", fotoKey).Msg("admin: falha ao remover foto órfã")
			}
		}
		return Admin{}, err
	}

	return criado, nil
}

// Update aplica alterações parciais. Rebaixar o último master é rejeitado.
// A foto nova é gravada antes de remover a antiga, para que o registro nunca
// aponte para um blob inexistente.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput, foto *FotoUpload) (Admin, error) {
	atual, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Admin{}, err
	}

	if input.Master != nil && atual.Master && !*input.Master {
		masters, err := s.repo.CountMasters(ctx)
		if err != nil {
			return Admin{}, err
		}
		if !podeRemoverMaster(masters) {
			return Admin{}, ErrUltimoMasterDemote
		}
	}

	params := UpdateParams{
		Nome:       atual.Usuario.Nome,
		Email:      atual.Usuario.Email,
		CPF:        atual.Usuario.CPF,
		SenhaHash:  atual.Usuario.SenhaHash,
		Telefone:   atual.Usuario.Telefone,
		Nascimento: atual.Usuario.Nascimento,
		FotoURL:    atual.Usuario.FotoURL,
		Master:     atual.Master,
	}

	if input.Nome != nil {
		if err := util.RequireString(*input.Nome, "nome"); err != nil {
			return Admin{}, err
		}
		params.Nome = strings.TrimSpace(*input.Nome)
	}
	if input.Email != nil {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return Admin{}, err
		}
		params.Email = strings.TrimSpace(*input.Email)
	}
	if input.CPF != nil {
		cpf, err := util.NormalizeCPF(*input.CPF)
		if err != nil {
			return Admin{}, err
		}
		params.CPF = cpf
	}
	if input.Senha != nil {
		if err := util.ValidatePassword(*input.Senha); err != nil {
			return Admin{}, err
		}
		hash, err := auth.Hash(*input.Senha)
		if err != nil {
			return Admin{}, err
		}
		params.SenhaHash = hash
	}
	if input.Telefone != nil {
		params.Telefone = input.Telefone
	}
	if input.Nascimento != nil {
		params.Nascimento = input.Nascimento
	}
	if input.Master != nil {
		params.Master = *input.Master
	}

	var fotoAntiga *string
	if foto != nil {
		fotoURL, fotoKey, err := s.uploadFoto(ctx, foto)
		if err != nil {
			return Admin{}, err
		}
		fotoAntiga = atual.Usuario.FotoURL
		params.FotoURL = fotoURL

		atualizado, err := s.repo.Update(ctx, id, params)
		if err != nil {
			if derr := s.fotos.Delete(ctx, fotoKey); derr != nil {
				log.Warn().Err(derr).Str("key", fotoKey).Msg("admin: falha ao remover foto órfã")
			}
			return Admin{}, err
		}

		s.deleteFotoURL(ctx, fotoAntiga)
		return atualizado, nil
	}

	return s.repo.Update(ctx, id, params)
}

// Delete exclui admin + usuário, protegendo o último master.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	atual, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if atual.Master {
		masters, err := s.repo.CountMasters(ctx)
		if err != nil {
			return err
		}
		if !podeRemoverMaster(masters) {
			return ErrUltimoMasterDelete
		}
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

	key, err := storage.NovaChaveFoto("equipe/admins", foto.ContentType)
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

// deleteFotoURL remove o blob apontado pela URL; falha vira log, não erro.
func (s *Service) deleteFotoURL(ctx context.Context, fotoURL *string) {
	if fotoURL == nil || *fotoURL == "" {
		return
	}
	key := *fotoURL
	if s3, ok := s.fotos.(*storage.S3Storage); ok {
		key = s3.KeyFromURL(*fotoURL)
	}
	if err := s.fotos.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("url", *fotoURL).Msg("admin: falha ao remover foto antiga")
	}
}
