package agenda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicavida/api/internal/util"
)

type stubAgendaRepo struct {
	recepcionistaID uuid.UUID
	medicoUsuario   uuid.UUID
	medicoID        uuid.UUID
	medicoOcupado   bool
	pacienteOcupado bool
	agendamentos    map[uuid.UUID]Agendamento
	consultas       map[uuid.UUID]Consulta
	pacientes       []PacienteResumo
	agenda          []Agendamento
	createCalls     int
	ultimoCreate    CreateParams
}

func newStubAgendaRepo() *stubAgendaRepo {
	return &stubAgendaRepo{
		recepcionistaID: uuid.New(),
		medicoUsuario:   uuid.New(),
		medicoID:        uuid.New(),
		agendamentos:    make(map[uuid.UUID]Agendamento),
		consultas:       make(map[uuid.UUID]Consulta),
	}
}

func (s *stubAgendaRepo) RecepcionistaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (uuid.UUID, error) {
	return s.recepcionistaID, nil
}

func (s *stubAgendaRepo) MedicoPorUsuario(ctx context.Context, usuarioID uuid.UUID) (uuid.UUID, error) {
	if usuarioID != s.medicoUsuario {
		return uuid.Nil, ErrAtorInvalido
	}
	return s.medicoID, nil
}

func (s *stubAgendaRepo) TemConflitoMedico(ctx context.Context, medicoID uuid.UUID, data time.Time) (bool, error) {
	return s.medicoOcupado, nil
}

func (s *stubAgendaRepo) TemConflitoPaciente(ctx context.Context, pacienteID uuid.UUID, data time.Time) (bool, error) {
	return s.pacienteOcupado, nil
}

func (s *stubAgendaRepo) Create(ctx context.Context, params CreateParams) (Agendamento, error) {
	s.createCalls++
	s.ultimoCreate = params
	ag := Agendamento{
		ID:              uuid.New(),
		Data:            params.Data,
		Status:          StatusAgendada,
		Valor:           params.Valor,
		MedicoID:        params.MedicoID,
		PacienteID:      params.PacienteID,
		RecepcionistaID: params.RecepcionistaID,
	}
	s.agendamentos[ag.ID] = ag
	return ag, nil
}

func (s *stubAgendaRepo) GetByID(ctx context.Context, id uuid.UUID) (Agendamento, error) {
	ag, ok := s.agendamentos[id]
	if !ok {
		return Agendamento{}, ErrNotFound
	}
	return ag, nil
}

func (s *stubAgendaRepo) List(ctx context.Context, filtro Filtro) (Pagina, error) {
	itens := make([]Agendamento, 0, len(s.agendamentos))
	for _, ag := range s.agendamentos {
		itens = append(itens, ag)
	}
	return Pagina{Itens: itens, Total: int64(len(itens)), Pagina: 1, PorPagina: pageSize}, nil
}

func (s *stubAgendaRepo) AgendaDoDia(ctx context.Context, medicoID uuid.UUID, dia time.Time) ([]Agendamento, error) {
	return s.agenda, nil
}

func (s *stubAgendaRepo) ListPacientes(ctx context.Context) ([]PacienteResumo, error) {
	return s.pacientes, nil
}

func (s *stubAgendaRepo) Cancelar(ctx context.Context, id uuid.UUID) error {
	ag, ok := s.agendamentos[id]
	if !ok {
		return ErrNotFound
	}
	if ag.Status != StatusAgendada {
		return ErrNaoAgendada
	}
	ag.Status = StatusCancelada
	s.agendamentos[id] = ag
	return nil
}

func (s *stubAgendaRepo) Finalizar(ctx context.Context, medicoID, agendamentoID uuid.UUID, params ConsultaParams) (Consulta, error) {
	ag, ok := s.agendamentos[agendamentoID]
	if !ok || ag.MedicoID != medicoID {
		return Consulta{}, ErrNotFound
	}
	if ag.Status != StatusAgendada {
		return Consulta{}, ErrNaoAgendada
	}
	ag.Status = StatusConcluida
	s.agendamentos[agendamentoID] = ag
	c := Consulta{
		ID:            uuid.New(),
		AgendamentoID: agendamentoID,
		Sintomas:      params.Sintomas,
		Diagnostico:   params.Diagnostico,
		Observacoes:   params.Observacoes,
	}
	s.consultas[agendamentoID] = c
	return c, nil
}

func (s *stubAgendaRepo) ConsultaPorAgendamento(ctx context.Context, agendamentoID uuid.UUID) (Consulta, error) {
	c, ok := s.consultas[agendamentoID]
	if !ok {
		return Consulta{}, ErrConsultaNotFound
	}
	return c, nil
}

func newTestService(repo *stubAgendaRepo) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time {
		return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.Local)
	}
	return svc
}

func validInput() AgendarInput {
	return AgendarInput{
		PacienteID: uuid.New(),
		MedicoID:   uuid.New(),
		Data:       "2026-03-12",
		Hora:       "14:30",
		Valor:      250,
	}
}

func TestAgendarCriaComStatusAgendada(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	ag, err := svc.Agendar(context.Background(), uuid.New(), validInput())
	if err != nil {
		t.Fatalf("agendar falhou: %v", err)
	}
	if ag.Status != StatusAgendada {
		t.Fatalf("esperava status agendada, obteve %s", ag.Status)
	}
	if repo.ultimoCreate.RecepcionistaID != repo.recepcionistaID {
		t.Fatalf("agendamento deve registrar o recepcionista logado")
	}

	quer := time.Date(2026, time.March, 12, 14, 30, 0, 0, time.Local)
	if !repo.ultimoCreate.Data.Equal(quer) {
		t.Fatalf("esperava horário %v, obteve %v", quer, repo.ultimoCreate.Data)
	}
}

func TestAgendarRejeitaDataPassada(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	input := validInput()
	input.Data = "2026-03-09"

	var verr util.ValidationError
	_, err := svc.Agendar(context.Background(), uuid.New(), input)
	if !errors.As(err, &verr) {
		t.Fatalf("esperava erro de validação, obteve %v", err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("criação não deveria ter chegado ao repositório")
	}
}

func TestAgendarAceitaHojeMesmoMaisCedo(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	// A regra compara apenas a data: um horário de hoje anterior ao momento
	// atual ainda é aceito.
	input := validInput()
	input.Data = "2026-03-10"
	input.Hora = "07:00"

	if _, err := svc.Agendar(context.Background(), uuid.New(), input); err != nil {
		t.Fatalf("agendar falhou: %v", err)
	}
}

func TestAgendarRejeitaValorNegativo(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	input := validInput()
	input.Valor = -1

	var verr util.ValidationError
	_, err := svc.Agendar(context.Background(), uuid.New(), input)
	if !errors.As(err, &verr) {
		t.Fatalf("esperava erro de validação, obteve %v", err)
	}
}

func TestAgendarDetectaConflitoDoMedico(t *testing.T) {
	repo := newStubAgendaRepo()
	repo.medicoOcupado = true
	svc := newTestService(repo)

	_, err := svc.Agendar(context.Background(), uuid.New(), validInput())
	if !errors.Is(err, ErrMedicoOcupado) {
		t.Fatalf("esperava ErrMedicoOcupado, obteve %v", err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("criação não deveria ter chegado ao repositório")
	}
}

func TestAgendarDetectaConflitoDoPaciente(t *testing.T) {
	repo := newStubAgendaRepo()
	repo.pacienteOcupado = true
	svc := newTestService(repo)

	_, err := svc.Agendar(context.Background(), uuid.New(), validInput())
	if !errors.Is(err, ErrPacienteOcupado) {
		t.Fatalf("esperava ErrPacienteOcupado, obteve %v", err)
	}
}

func TestCancelarLiberaHorario(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	ag, err := svc.Agendar(context.Background(), uuid.New(), validInput())
	if err != nil {
		t.Fatalf("agendar falhou: %v", err)
	}

	if err := svc.Cancelar(context.Background(), ag.ID); err != nil {
		t.Fatalf("cancelar falhou: %v", err)
	}
	if repo.agendamentos[ag.ID].Status != StatusCancelada {
		t.Fatalf("esperava status cancelada")
	}

	// Cancelar de novo falha: o status já não é agendada.
	if err := svc.Cancelar(context.Background(), ag.ID); !errors.Is(err, ErrNaoAgendada) {
		t.Fatalf("esperava ErrNaoAgendada, obteve %v", err)
	}
}

func TestListarRejeitaStatusDesconhecido(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	var verr util.ValidationError
	_, err := svc.Listar(context.Background(), Filtro{Status: "pendente"})
	if !errors.As(err, &verr) {
		t.Fatalf("esperava erro de validação, obteve %v", err)
	}
}

func TestFinalizarConsultaConcluiAgendamento(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	input := validInput()
	input.MedicoID = repo.medicoID
	ag, err := svc.Agendar(context.Background(), uuid.New(), input)
	if err != nil {
		t.Fatalf("agendar falhou: %v", err)
	}

	consulta, err := svc.FinalizarConsulta(context.Background(), repo.medicoUsuario, FinalizarInput{
		AgendamentoID: ag.ID,
		Sintomas:      "Dor de cabeça",
		Diagnostico:   "Enxaqueca",
	})
	if err != nil {
		t.Fatalf("finalizar falhou: %v", err)
	}
	if consulta.AgendamentoID != ag.ID {
		t.Fatalf("consulta vinculada ao agendamento errado")
	}
	if repo.agendamentos[ag.ID].Status != StatusConcluida {
		t.Fatalf("esperava status concluida")
	}
}

func TestFinalizarConsultaDeOutroMedicoRespondeNotFound(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	// Agendamento pertence a outro médico.
	ag, err := svc.Agendar(context.Background(), uuid.New(), validInput())
	if err != nil {
		t.Fatalf("agendar falhou: %v", err)
	}

	_, err = svc.FinalizarConsulta(context.Background(), repo.medicoUsuario, FinalizarInput{
		AgendamentoID: ag.ID,
		Sintomas:      "Tosse",
		Diagnostico:   "Gripe",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperava ErrNotFound, obteve %v", err)
	}
}

func TestFinalizarConsultaExigeRegistroClinico(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	var verr util.ValidationError
	_, err := svc.FinalizarConsulta(context.Background(), repo.medicoUsuario, FinalizarInput{
		AgendamentoID: uuid.New(),
		Sintomas:      " ",
		Diagnostico:   "Gripe",
	})
	if !errors.As(err, &verr) {
		t.Fatalf("esperava erro de validação, obteve %v", err)
	}
}

func TestFinalizarConsultaJaConcluidaFalha(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	input := validInput()
	input.MedicoID = repo.medicoID
	ag, err := svc.Agendar(context.Background(), uuid.New(), input)
	if err != nil {
		t.Fatalf("agendar falhou: %v", err)
	}

	finalizar := FinalizarInput{AgendamentoID: ag.ID, Sintomas: "Febre", Diagnostico: "Virose"}
	if _, err := svc.FinalizarConsulta(context.Background(), repo.medicoUsuario, finalizar); err != nil {
		t.Fatalf("primeira finalização falhou: %v", err)
	}
	if _, err := svc.FinalizarConsulta(context.Background(), repo.medicoUsuario, finalizar); !errors.Is(err, ErrNaoAgendada) {
		t.Fatalf("esperava ErrNaoAgendada, obteve %v", err)
	}
}

func TestIniciarConsultaAgregaAgendaEPacientes(t *testing.T) {
	repo := newStubAgendaRepo()
	repo.agenda = []Agendamento{{ID: uuid.New(), Status: StatusAgendada}}
	repo.pacientes = []PacienteResumo{{ID: uuid.New(), Nome: "Carlos Lima"}}
	svc := newTestService(repo)

	inicio, err := svc.IniciarConsulta(context.Background(), repo.medicoUsuario)
	if err != nil {
		t.Fatalf("iniciar falhou: %v", err)
	}
	if len(inicio.Agenda) != 1 || len(inicio.Pacientes) != 1 {
		t.Fatalf("esperava agenda e pacientes preenchidos, obteve %+v", inicio)
	}
}

func TestIniciarConsultaExigeVinculoDeMedico(t *testing.T) {
	repo := newStubAgendaRepo()
	svc := newTestService(repo)

	_, err := svc.IniciarConsulta(context.Background(), uuid.New())
	if !errors.Is(err, ErrAtorInvalido) {
		t.Fatalf("esperava ErrAtorInvalido, obteve %v", err)
	}
}
