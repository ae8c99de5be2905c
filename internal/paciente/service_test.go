package paciente

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicavida/api/internal/util"
)

type stubPacienteRepo struct {
	pacientes   map[uuid.UUID]Paciente
	ultimaBusca string
	ultimaPag   int
	comVinculo  map[uuid.UUID]bool
}

func newStubPacienteRepo() *stubPacienteRepo {
	return &stubPacienteRepo{
		pacientes:  make(map[uuid.UUID]Paciente),
		comVinculo: make(map[uuid.UUID]bool),
	}
}

func (s *stubPacienteRepo) GetByID(ctx context.Context, id uuid.UUID) (Paciente, error) {
	p, ok := s.pacientes[id]
	if !ok {
		return Paciente{}, ErrNotFound
	}
	return p, nil
}

func (s *stubPacienteRepo) List(ctx context.Context, busca string, pagina int) (Pagina, error) {
	s.ultimaBusca = busca
	s.ultimaPag = pagina

	itens := make([]Paciente, 0, len(s.pacientes))
	for _, p := range s.pacientes {
		if busca == "" || strings.Contains(strings.ToLower(p.Nome), strings.ToLower(busca)) {
			itens = append(itens, p)
		}
	}
	return Pagina{Itens: itens, Total: int64(len(itens)), Pagina: pagina, PorPagina: 8}, nil
}

func (s *stubPacienteRepo) Create(ctx context.Context, params Params) (Paciente, error) {
	p := Paciente{
		ID:    uuid.New(),
		Nome:  params.Nome,
		Email: params.Email,
		CPF:   params.CPF,
	}
	s.pacientes[p.ID] = p
	return p, nil
}

func (s *stubPacienteRepo) Update(ctx context.Context, id uuid.UUID, params Params) (Paciente, error) {
	p, ok := s.pacientes[id]
	if !ok {
		return Paciente{}, ErrNotFound
	}
	p.Nome = params.Nome
	p.Email = params.Email
	p.CPF = params.CPF
	s.pacientes[id] = p
	return p, nil
}

func (s *stubPacienteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.pacientes[id]; !ok {
		return ErrNotFound
	}
	if s.comVinculo[id] {
		return ErrPossuiAgendamentos
	}
	delete(s.pacientes, id)
	return nil
}

func seedPaciente(repo *stubPacienteRepo, nome string) Paciente {
	p := Paciente{ID: uuid.New(), Nome: nome, Email: strings.ToLower(nome) + "@x.com", CPF: "52998224725"}
	repo.pacientes[p.ID] = p
	return p
}

func TestListFiltraPorNome(t *testing.T) {
	repo := newStubPacienteRepo()
	seedPaciente(repo, "João Silva")
	seedPaciente(repo, "Maria Santos")
	seedPaciente(repo, "Pedro João")

	svc := NewService(repo)

	page, err := svc.List(context.Background(), "  joão ", 1)
	if err != nil {
		t.Fatalf("list falhou: %v", err)
	}
	if repo.ultimaBusca != "joão" {
		t.Fatalf("busca deveria chegar aparada ao repositório, obteve %q", repo.ultimaBusca)
	}
	if page.Total != 2 {
		t.Fatalf("esperava 2 resultados para joão, obteve %d", page.Total)
	}
}

func TestCreateValidaCadastro(t *testing.T) {
	repo := newStubPacienteRepo()
	svc := NewService(repo)

	casos := []CreateInput{
		{Nome: "", Email: "a@x.com", CPF: "52998224725"},
		{Nome: "Ana", Email: "a", CPF: "52998224725"},
		{Nome: "Ana", Email: "a@x.com", CPF: "123"},
	}
	for _, input := range casos {
		var verr util.ValidationError
		if _, err := svc.Create(context.Background(), input); !errors.As(err, &verr) {
			t.Fatalf("esperava erro de validação para %+v, obteve %v", input, err)
		}
	}

	p, err := svc.Create(context.Background(), CreateInput{Nome: "  Ana Souza  ", Email: "ana@x.com", CPF: "529.982.247-25"})
	if err != nil {
		t.Fatalf("create falhou: %v", err)
	}
	if p.Nome != "Ana Souza" {
		t.Fatalf("nome deveria chegar aparado, obteve %q", p.Nome)
	}
	if p.CPF != "52998224725" {
		t.Fatalf("cpf deveria ser normalizado, obteve %q", p.CPF)
	}
}

func TestUpdateParcialPreservaCampos(t *testing.T) {
	repo := newStubPacienteRepo()
	existente := seedPaciente(repo, "Carlos Lima")
	svc := NewService(repo)

	novoNome := "Carlos A. Lima"
	atualizado, err := svc.Update(context.Background(), existente.ID, UpdateInput{Nome: &novoNome})
	if err != nil {
		t.Fatalf("update falhou: %v", err)
	}
	if atualizado.Nome != novoNome {
		t.Fatalf("esperava nome atualizado, obteve %q", atualizado.Nome)
	}
	if atualizado.Email != existente.Email {
		t.Fatalf("email deveria ser preservado, obteve %q", atualizado.Email)
	}
}

func TestDeleteComAgendamentosFalha(t *testing.T) {
	repo := newStubPacienteRepo()
	existente := seedPaciente(repo, "Beatriz Nunes")
	repo.comVinculo[existente.ID] = true
	svc := NewService(repo)

	if err := svc.Delete(context.Background(), existente.ID); !errors.Is(err, ErrPossuiAgendamentos) {
		t.Fatalf("esperava ErrPossuiAgendamentos, obteve %v", err)
	}
}
