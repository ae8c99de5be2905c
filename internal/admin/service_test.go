package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicavida/api/internal/conta"
	"github.com/clinicavida/api/internal/storage"
	"github.com/clinicavida/api/internal/util"
)

type stubAdminRepo struct {
	admins      map[uuid.UUID]Admin
	masters     int64
	deleted     []uuid.UUID
	updated     map[uuid.UUID]UpdateParams
	createCalls int
}

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{
		admins:  make(map[uuid.UUID]Admin),
		updated: make(map[uuid.UUID]UpdateParams),
	}
}

func (s *stubAdminRepo) GetByID(ctx context.Context, id uuid.UUID) (Admin, error) {
	a, ok := s.admins[id]
	if !ok {
		return Admin{}, ErrNotFound
	}
	return a, nil
}

func (s *stubAdminRepo) List(ctx context.Context, busca string, pagina int) (Pagina, error) {
	itens := make([]Admin, 0, len(s.admins))
	for _, a := range s.admins {
		itens = append(itens, a)
	}
	return Pagina{Itens: itens, Total: int64(len(itens)), Pagina: pagina, PorPagina: 10}, nil
}

func (s *stubAdminRepo) Create(ctx context.Context, params CreateParams) (Admin, error) {
	s.createCalls++
	a := Admin{
		ID:     uuid.New(),
		Master: params.Master,
		Usuario: conta.Usuario{
			ID:    uuid.New(),
			Nome:  params.Nome,
			Email: params.Email,
			CPF:   params.CPF,
		},
	}
	s.admins[a.ID] = a
	return a, nil
}

func (s *stubAdminRepo) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Admin, error) {
	a, ok := s.admins[id]
	if !ok {
		return Admin{}, ErrNotFound
	}
	s.updated[id] = params
	a.Master = params.Master
	a.Usuario.Nome = params.Nome
	a.Usuario.Email = params.Email
	s.admins[id] = a
	return a, nil
}

func (s *stubAdminRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.admins[id]; !ok {
		return ErrNotFound
	}
	delete(s.admins, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubAdminRepo) CountMasters(ctx context.Context) (int64, error) {
	return s.masters, nil
}

func seedAdmin(repo *stubAdminRepo, master bool) Admin {
	a := Admin{
		ID:     uuid.New(),
		Master: master,
		Usuario: conta.Usuario{
			ID:    uuid.New(),
			Nome:  "Ana Souza",
			Email: "ana@clinicavida.com.br",
			CPF:   "52998224725",
		},
	}
	repo.admins[a.ID] = a
	return a
}

func TestDeleteBloqueiaUltimoMaster(t *testing.T) {
	repo := newStubAdminRepo()
	repo.masters = 1
	alvo := seedAdmin(repo, true)

	svc := NewService(repo, storage.NoopStorage{})

	err := svc.Delete(context.Background(), alvo.ID)
	if !errors.Is(err, ErrUltimoMasterDelete) {
		t.Fatalf("esperava ErrUltimoMasterDelete, obteve %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("delete não deveria ter chegado ao repositório")
	}
}

func TestDeletePermiteMasterQuandoHaOutro(t *testing.T) {
	repo := newStubAdminRepo()
	repo.masters = 2
	alvo := seedAdmin(repo, true)

	svc := NewService(repo, storage.NoopStorage{})

	if err := svc.Delete(context.Background(), alvo.ID); err != nil {
		t.Fatalf("delete falhou: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != alvo.ID {
		t.Fatalf("esperava exclusão de %s, obteve %v", alvo.ID, repo.deleted)
	}
}

func TestDeleteNaoConsultaMastersParaAdminComum(t *testing.T) {
	repo := newStubAdminRepo()
	repo.masters = 1
	alvo := seedAdmin(repo, false)

	svc := NewService(repo, storage.NoopStorage{})

	if err := svc.Delete(context.Background(), alvo.ID); err != nil {
		t.Fatalf("delete falhou: %v", err)
	}
}

func TestUpdateBloqueiaRebaixarUltimoMaster(t *testing.T) {
	repo := newStubAdminRepo()
	repo.masters = 1
	alvo := seedAdmin(repo, true)

	svc := NewService(repo, storage.NoopStorage{})

	naoMaster := false
	_, err := svc.Update(context.Background(), alvo.ID, UpdateInput{Master: &naoMaster}, nil)
	if !errors.Is(err, ErrUltimoMasterDemote) {
		t.Fatalf("esperava ErrUltimoMasterDemote, obteve %v", err)
	}
	if _, ok := repo.updated[alvo.ID]; ok {
		t.Fatalf("update não deveria ter chegado ao repositório")
	}
}

func TestUpdatePermiteRebaixarComOutroMaster(t *testing.T) {
	repo := newStubAdminRepo()
	repo.masters = 2
	alvo := seedAdmin(repo, true)

	svc := NewService(repo, storage.NoopStorage{})

	naoMaster := false
	atualizado, err := svc.Update(context.Background(), alvo.ID, UpdateInput{Master: &naoMaster}, nil)
	if err != nil {
		t.Fatalf("update falhou: %v", err)
	}
	if atualizado.Master {
		t.Fatalf("esperava master=false após rebaixamento")
	}
}

func TestUpdatePromoverNaoConsultaInvariante(t *testing.T) {
	repo := newStubAdminRepo()
	repo.masters = 1
	alvo := seedAdmin(repo, false)

	svc := NewService(repo, storage.NoopStorage{})

	master := true
	atualizado, err := svc.Update(context.Background(), alvo.ID, UpdateInput{Master: &master}, nil)
	if err != nil {
		t.Fatalf("update falhou: %v", err)
	}
	if !atualizado.Master {
		t.Fatalf("esperava master=true após promoção")
	}
}

func TestCreateValidaCampos(t *testing.T) {
	repo := newStubAdminRepo()
	svc := NewService(repo, storage.NoopStorage{})

	casos := []struct {
		nome  string
		input CreateInput
	}{
		{"email inválido", CreateInput{Nome: "Ana", Email: "ana", CPF: "52998224725", Senha: "segredo123"}},
		{"cpf inválido", CreateInput{Nome: "Ana", Email: "ana@x.com", CPF: "123", Senha: "segredo123"}},
		{"senha curta", CreateInput{Nome: "Ana", Email: "ana@x.com", CPF: "52998224725", Senha: "abc"}},
		{"nome vazio", CreateInput{Nome: "  ", Email: "ana@x.com", CPF: "52998224725", Senha: "segredo123"}},
	}

	for _, caso := range casos {
		var verr util.ValidationError
		_, err := svc.Create(context.Background(), caso.input, nil)
		if !errors.As(err, &verr) {
			t.Fatalf("%s: esperava erro de validação, obteve %v", caso.nome, err)
		}
	}
	if repo.createCalls != 0 {
		t.Fatalf("nenhuma criação deveria ter chegado ao repositório")
	}
}

func TestCreateRetornaIdentidadeDoUsuario(t *testing.T) {
	repo := newStubAdminRepo()
	svc := NewService(repo, storage.NoopStorage{})

	criado, err := svc.Create(context.Background(), CreateInput{
		Nome:   "Ana Souza",
		Email:  "ana@clinicavida.com.br",
		CPF:    "529.982.247-25",
		Senha:  "segredo123",
		Master: true,
	}, nil)
	if err != nil {
		t.Fatalf("create falhou: %v", err)
	}
	if criado.Usuario.Email != "ana@clinicavida.com.br" {
		t.Fatalf("esperava e-mail no usuário vinculado, obteve %q", criado.Usuario.Email)
	}
	if criado.Usuario.CPF != "52998224725" {
		t.Fatalf("esperava CPF normalizado, obteve %q", criado.Usuario.CPF)
	}
	if !criado.Master {
		t.Fatalf("esperava master=true")
	}
}

func TestPodeRemoverMaster(t *testing.T) {
	if podeRemoverMaster(1) {
		t.Fatalf("não deve permitir remover com apenas um master")
	}
	if !podeRemoverMaster(2) {
		t.Fatalf("deve permitir remover com dois masters")
	}
}
