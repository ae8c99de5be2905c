package paciente

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound é retornado quando o paciente não existe.
	ErrNotFound = errors.New("paciente não encontrado")
	// ErrEmailEmUso indica violação de unicidade do e-mail.
	ErrEmailEmUso = errors.New("email já cadastrado")
	// ErrCPFEmUso indica violação de unicidade do CPF.
	ErrCPFEmUso = errors.New("cpf já cadastrado")
	// ErrPossuiAgendamentos impede excluir paciente com agendamentos vinculados.
	ErrPossuiAgendamentos = errors.New("paciente possui agendamentos vinculados")
)

// Paciente representa um paciente da clínica.
type Paciente struct {
	ID                uuid.UUID  `json:"id"`
	Nome              string     `json:"nome"`
	Email             string     `json:"email"`
	CPF               string     `json:"cpf"`
	Genero            *string    `json:"genero,omitempty"`
	Telefone          *string    `json:"telefone,omitempty"`
	Nascimento        *time.Time `json:"nascimento,omitempty"`
	ContatoEmergencia *string    `json:"contato_emergencia,omitempty"`
	HistoricoMedico   *string    `json:"historico_medico,omitempty"`
	CriadoEm          time.Time  `json:"criado_em"`
}

// Pagina agrega uma página de resultados da listagem.
type Pagina struct {
	Itens     []Paciente `json:"itens"`
	Total     int64      `json:"total"`
	Pagina    int        `json:"pagina"`
	PorPagina int        `json:"por_pagina"`
}

// CreateInput carrega os campos para cadastro.
type CreateInput struct {
	Nome              string     `json:"nome"`
	Email             string     `json:"email"`
	CPF               string     `json:"cpf"`
	Genero            *string    `json:"genero"`
	Telefone          *string    `json:"telefone"`
	Nascimento        *time.Time `json:"nascimento"`
	ContatoEmergencia *string    `json:"contato_emergencia"`
	HistoricoMedico   *string    `json:"historico_medico"`
}

// UpdateInput carrega alterações parciais; ponteiro nil preserva o valor atual.
type UpdateInput struct {
	Nome              *string    `json:"nome"`
	Email             *string    `json:"email"`
	CPF               *string    `json:"cpf"`
	Genero            *string    `json:"genero"`
	Telefone          *string    `json:"telefone"`
	Nascimento        *time.Time `json:"nascimento"`
	ContatoEmergencia *string    `json:"contato_emergencia"`
	HistoricoMedico   *string    `json:"historico_medico"`
}
