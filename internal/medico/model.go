package medico

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicavida/api/internal/conta"
)

var (
	// ErrNotFound é retornado quando o médico não existe.
	ErrNotFound = errors.New("médico não encontrado")
	// ErrEmailEmUso indica violação de unicidade do e-mail.
	ErrEmailEmUso = errors.New("email já cadastrado")
	// ErrCPFEmUso indica violação de unicidade do CPF.
	ErrCPFEmUso = errors.New("cpf já cadastrado")
	// ErrCRMEmUso indica violação de unicidade do CRM.
	ErrCRMEmUso = errors.New("crm já cadastrado")
	// ErrPossuiAgendamentos impede excluir médico com agendamentos vinculados.
	ErrPossuiAgendamentos = errors.New("médico possui agendamentos vinculados")
)

// Medico representa um médico, vinculado um-para-um ao usuário.
type Medico struct {
	ID       uuid.UUID     `json:"id"`
	CRM      string        `json:"crm"`
	Usuario  conta.Usuario `json:"usuario"`
	CriadoEm time.Time     `json:"criado_em"`
}

// Pagina agrega uma página de resultados da listagem.
type Pagina struct {
	Itens     []Medico `json:"itens"`
	Total     int64    `json:"total"`
	Pagina    int      `json:"pagina"`
	PorPagina int      `json:"por_pagina"`
}

// CreateInput carrega os campos de usuário e de papel para criação.
type CreateInput struct {
	Nome       string
	Email      string
	CPF        string
	Senha      string
	Telefone   *string
	Nascimento *time.Time
	CRM        string
}

// UpdateInput carrega alterações parciais; ponteiro nil preserva o valor atual.
type UpdateInput struct {
	Nome       *string
	Email      *string
	CPF        *string
	Senha      *string
	Telefone   *string
	Nascimento *time.Time
	CRM        *string
}
