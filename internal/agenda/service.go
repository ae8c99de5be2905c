package agenda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/clinicavida/api/internal/util"
)

const agendaCacheTTL = 60 * time.Second

// AgendaRepository abstrai a persistência de agendamentos e consultas.
type AgendaRepository interface {
	RecepcionistaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (uuid.UUID, error)
	MedicoPorUsuario(ctx context.Context, usuarioID uuid.UUID) (uuid.UUID, error)
	TemConflitoMedico(ctx context.Context, medicoID uuid.UUID, data time.Time) (bool, error)
	TemConflitoPaciente(ctx context.Context, pacienteID uuid.UUID, data time.Time) (bool, error)
	Create(ctx context.Context, params CreateParams) (Agendamento, error)
	GetByID(ctx context.Context, id uuid.UUID) (Agendamento, error)
	List(ctx context.Context, filtro Filtro) (Pagina, error)
	AgendaDoDia(ctx context.Context, medicoID uuid.UUID, dia time.Time) ([]Agendamento, error)
	ListPacientes(ctx context.Context) ([]PacienteResumo, error)
	Cancelar(ctx context.Context, id uuid.UUID) error
	Finalizar(ctx context.Context, medicoID, agendamentoID uuid.UUID, params ConsultaParams) (Consulta, error)
	ConsultaPorAgendamento(ctx context.Context, agendamentoID uuid.UUID) (Consulta, error)
}

// Service orquestra marcação, cancelamento e conclusão de agendamentos.
type Service struct {
	repo  AgendaRepository
	cache *redis.Client
	now   func() time.Time
}

func NewService(repo AgendaRepository, cache *redis.Client) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// AgendarInput carrega os campos do formulário de marcação.
type AgendarInput struct {
	PacienteID uuid.UUID
	MedicoID   uuid.UUID
	Data       string
	Hora       string
	Valor      float64
}

// Agendar valida e registra um novo agendamento para o recepcionista logado.
// O índice único parcial do banco é a garantia final contra corrida entre
// pré-check e inserção.
func (s *Service) Agendar(ctx context.Context, usuarioID uuid.UUID, input AgendarInput) (Agendamento, error) {
	recepID, err := s.repo.RecepcionistaPorUsuario(ctx, usuarioID)
	if err != nil {
		return Agendamento{}, err
	}

	quando, err := s.parseHorario(input.Data, input.Hora)
	if err != nil {
		return Agendamento{}, err
	}
	if input.Valor < 0 {
		return Agendamento{}, util.ValidationError("Valor não pode ser negativo.")
	}
	if input.MedicoID == uuid.Nil {
		return Agendamento{}, util.ValidationError("Médico é obrigatório.")
	}
	if input.PacienteID == uuid.Nil {
		return Agendamento{}, util.ValidationError("Paciente é obrigatório.")
	}

	if ocupado, err := s.repo.TemConflitoMedico(ctx, input.MedicoID, quando); err != nil {
		return Agendamento{}, err
	} else if ocupado {
		return Agendamento{}, ErrMedicoOcupado
	}
	if ocupado, err := s.repo.TemConflitoPaciente(ctx, input.PacienteID, quando); err != nil {
		return Agendamento{}, err
	} else if ocupado {
		return Agendamento{}, ErrPacienteOcupado
	}

	ag, err := s.repo.Create(ctx, CreateParams{
		Data:            quando,
		Valor:           input.Valor,
		MedicoID:        input.MedicoID,
		PacienteID:      input.PacienteID,
		RecepcionistaID: recepID,
	})
	if err != nil {
		return Agendamento{}, err
	}

	s.invalidateAgenda(ctx, ag.MedicoID, ag.Data)
	return ag, nil
}

func (s *Service) parseHorario(data, hora string) (time.Time, error) {
	dia, err := time.ParseInLocation("2006-01-02", data, time.Local)
	if err != nil {
		return time.Time{}, util.ValidationError("Data inválida; use o formato AAAA-MM-DD.")
	}
	horario, err := time.ParseInLocation("15:04", hora, time.Local)
	if err != nil {
		return time.Time{}, util.ValidationError("Horário inválido; use o formato HH:MM.")
	}

	quando := time.Date(dia.Year(), dia.Month(), dia.Day(),
		horario.Hour(), horario.Minute(), 0, 0, time.Local)

	agora := s.now()
	hoje := time.Date(agora.Year(), agora.Month(), agora.Day(), 0, 0, 0, 0, time.Local)
	if quando.Before(hoje) {
		return time.Time{}, util.ValidationError("Data deve ser hoje ou futura.")
	}
	return quando, nil
}

// Buscar retorna um agendamento pelo ID, com a consulta quando já concluído.
func (s *Service) Buscar(ctx context.Context, id uuid.UUID) (Agendamento, *Consulta, error) {
	ag, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Agendamento{}, nil, err
	}
	if ag.Status != StatusConcluida {
		return ag, nil, nil
	}
	consulta, err := s.repo.ConsultaPorAgendamento(ctx, id)
	if err != nil {
		return Agendamento{}, nil, err
	}
	return ag, &consulta, nil
}

// Listar pagina os agendamentos conforme o filtro da recepção.
func (s *Service) Listar(ctx context.Context, filtro Filtro) (Pagina, error) {
	switch filtro.Status {
	case "", StatusAgendada, StatusConcluida, StatusCancelada:
	default:
		return Pagina{}, util.ValidationError("Status inválido.")
	}
	return s.repo.List(ctx, filtro)
}

// Cancelar move o agendamento para cancelada e libera os horários.
func (s *Service) Cancelar(ctx context.Context, id uuid.UUID) error {
	ag, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Cancelar(ctx, id); err != nil {
		return err
	}
	s.invalidateAgenda(ctx, ag.MedicoID, ag.Data)
	return nil
}

// IniciarConsulta monta a tela do médico: agenda pendente de hoje e pacientes
// cadastrados.
func (s *Service) IniciarConsulta(ctx context.Context, usuarioID uuid.UUID) (InicioConsulta, error) {
	medicoID, err := s.repo.MedicoPorUsuario(ctx, usuarioID)
	if err != nil {
		return InicioConsulta{}, err
	}

	agenda, err := s.agendaDoDia(ctx, medicoID, s.now())
	if err != nil {
		return InicioConsulta{}, err
	}
	pacientes, err := s.repo.ListPacientes(ctx)
	if err != nil {
		return InicioConsulta{}, err
	}
	return InicioConsulta{Agenda: agenda, Pacientes: pacientes}, nil
}

// FinalizarInput carrega o registro clínico enviado pelo médico.
type FinalizarInput struct {
	AgendamentoID uuid.UUID
	Sintomas      string
	Diagnostico   string
	Observacoes   *string
}

// FinalizarConsulta conclui um agendamento do médico logado gravando a
// consulta.
func (s *Service) FinalizarConsulta(ctx context.Context, usuarioID uuid.UUID, input FinalizarInput) (Consulta, error) {
	medicoID, err := s.repo.MedicoPorUsuario(ctx, usuarioID)
	if err != nil {
		return Consulta{}, err
	}

	if err := util.RequireString(input.Sintomas, "Sintomas"); err != nil {
		return Consulta{}, err
	}
	if err := util.RequireString(input.Diagnostico, "Diagnóstico"); err != nil {
		return Consulta{}, err
	}
	if input.AgendamentoID == uuid.Nil {
		return Consulta{}, util.ValidationError("Agendamento é obrigatório.")
	}

	consulta, err := s.repo.Finalizar(ctx, medicoID, input.AgendamentoID, ConsultaParams{
		Sintomas:    input.Sintomas,
		Diagnostico: input.Diagnostico,
		Observacoes: input.Observacoes,
	})
	if err != nil {
		return Consulta{}, err
	}

	if ag, err := s.repo.GetByID(ctx, input.AgendamentoID); err == nil {
		s.invalidateAgenda(ctx, ag.MedicoID, ag.Data)
	}
	return consulta, nil
}

func agendaCacheKey(medicoID uuid.UUID, dia time.Time) string {
	return fmt.Sprintf("agenda:medico:%s:%s", medicoID, dia.Format("2006-01-02"))
}

func (s *Service) agendaDoDia(ctx context.Context, medicoID uuid.UUID, dia time.Time) ([]Agendamento, error) {
	if s.cache == nil {
		return s.repo.AgendaDoDia(ctx, medicoID, dia)
	}

	key := agendaCacheKey(medicoID, dia)
	if raw, err := s.cache.Get(ctx, key).Result(); err == nil {
		var agenda []Agendamento
		if err := json.Unmarshal([]byte(raw), &agenda); err == nil {
			return agenda, nil
		}
	}

	agenda, err := s.repo.AgendaDoDia(ctx, medicoID, dia)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(agenda); err == nil {
		if err := s.cache.Set(ctx, key, raw, agendaCacheTTL).Err(); err != nil {
			log.Warn().Err(err).Str("chave", key).Msg("falha ao gravar cache da agenda")
		}
	}
	return agenda, nil
}

func (s *Service) invalidateAgenda(ctx context.Context, medicoID uuid.UUID, dia time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, agendaCacheKey(medicoID, dia)).Err(); err != nil {
		log.Warn().Err(err).Msg("falha ao invalidar cache da agenda")
	}
}
