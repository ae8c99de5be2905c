package recepcao

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicavida/api/internal/conta"
)

var (
	// ErrNotFound é retornado quando a recepcionista não existe.
	ErrNotFound = errors.New("recepcionista não encontrada")
	// ErrEmailEmUso indica violação de unicidade do e-mail.
	ErrEmailEmUso = errors.New("email já cadastrado")
	// ErrCPFEmUso indica violação de unicidade do CPF.
	ErrCPFEmUso = errors.New("cpf já cadastrado")
	// ErrRegistroEmUso indica violação de unicidade do número de registro.
	ErrRegistroEmUso = errors.New("número de registro já cadastrado")
	// ErrPossuiAgendamentos impede excluir recepcionista com agendamentos vinculados.
	ErrPossuiAgendamentos = errors.New("recepcionista possui agendamentos vinculados")
)

// Recepcionista representa uma recepcionista, vinculada um-para-um ao usuário.
type Recepcionista struct {
	ID       uuid.UUID     `json:"id"`
	Registro string        `json:"registro"`
	Usuario  conta.Usuario `json:"usuario"`
	CriadoEm time.Time     `json:"criado_em"`
}

// Pagina agrega uma página de resultados da listagem.
type Pagina struct {
	Itens     []Recepcionista `json:"itens"`
	Total     int64           `json:"total"`
	Pagina    int             `json:"pagina"`
	PorPagina int             `json:"por_pagina"`
}

// CreateInput carrega os campos de usuário e de papel para criação.
type CreateInput struct {
	Nome       string
	Email      string
	CPF        string
	Senha      string
	Telefone   *string
	Nascimento *time.Time
	Registro   string
}

// UpdateInput carrega alterações parciais; ponteiro nil preserva o valor atual.
type UpdateInput struct {
	Nome       *string
	Email      *string
	CPF        *string
	Senha      *string
	Telefone   *string
	Nascimento *time.Time
	Registro   *string
}
