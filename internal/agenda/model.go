package agenda

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status do agendamento. A transição permitida é agendada → concluida
// (exclusivamente ao finalizar a consulta) ou agendada → cancelada.
// Agendamentos nunca são deletados.
const (
	StatusAgendada  = "agendada"
	StatusConcluida = "concluida"
	StatusCancelada = "cancelada"
)

var (
	// ErrNotFound cobre agendamento inexistente e também agendamento de outro
	// médico: a resposta não revela quem é o dono.
	ErrNotFound = errors.New("agendamento não encontrado")
	// ErrMedicoOcupado indica conflito de horário do médico.
	ErrMedicoOcupado = errors.New("médico já possui agendamento neste horário")
	// ErrPacienteOcupado indica conflito de horário do paciente.
	ErrPacienteOcupado = errors.New("paciente já possui agendamento neste horário")
	// ErrMedicoInexistente indica medico_id que não resolve.
	ErrMedicoInexistente = errors.New("médico não encontrado")
	// ErrPacienteInexistente indica paciente_id que não resolve.
	ErrPacienteInexistente = errors.New("paciente não encontrado")
	// ErrNaoAgendada indica transição a partir de um status diferente de agendada.
	ErrNaoAgendada = errors.New("agendamento não está com status agendada")
	// ErrAtorInvalido indica usuário autenticado sem vínculo com o papel esperado.
	ErrAtorInvalido = errors.New("vínculo do usuário não encontrado")
	// ErrConsultaNotFound indica agendamento ainda sem consulta registrada.
	ErrConsultaNotFound = errors.New("consulta não encontrada")
)

// Agendamento representa um horário reservado de um médico para um paciente.
type Agendamento struct {
	ID              uuid.UUID `json:"id"`
	Data            time.Time `json:"data"`
	Status          string    `json:"status"`
	Valor           float64   `json:"valor"`
	MedicoID        uuid.UUID `json:"medico_id"`
	MedicoNome      string    `json:"medico_nome"`
	PacienteID      uuid.UUID `json:"paciente_id"`
	PacienteNome    string    `json:"paciente_nome"`
	RecepcionistaID uuid.UUID `json:"recepcionista_id"`
	CriadoEm        time.Time `json:"criado_em"`
}

// Consulta é o registro clínico criado uma única vez ao concluir o
// agendamento; imutável depois disso.
type Consulta struct {
	ID            uuid.UUID `json:"id"`
	AgendamentoID uuid.UUID `json:"agendamento_id"`
	Sintomas      string    `json:"sintomas"`
	Diagnostico   string    `json:"diagnostico"`
	Observacoes   *string   `json:"observacoes,omitempty"`
	CriadoEm      time.Time `json:"criado_em"`
}

// PacienteResumo alimenta a tela de seleção ao iniciar uma consulta.
type PacienteResumo struct {
	ID   uuid.UUID `json:"id"`
	Nome string    `json:"nome"`
}

// InicioConsulta agrega a agenda do dia do médico e os pacientes cadastrados.
type InicioConsulta struct {
	Agenda    []Agendamento    `json:"agenda"`
	Pacientes []PacienteResumo `json:"pacientes"`
}

// Pagina agrega uma página de agendamentos.
type Pagina struct {
	Itens     []Agendamento `json:"itens"`
	Total     int64         `json:"total"`
	Pagina    int           `json:"pagina"`
	PorPagina int           `json:"por_pagina"`
}

// Filtro restringe a listagem da recepção.
type Filtro struct {
	Dia      *time.Time
	MedicoID *uuid.UUID
	Status   string
	Pagina   int
}
