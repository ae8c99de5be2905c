package admin

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicavida/api/internal/conta"
)

var (
	// ErrNotFound é retornado quando o administrador não existe.
	ErrNotFound = errors.New("administrador não encontrado")
	// ErrEmailEmUso indica violação de unicidade do e-mail.
	ErrEmailEmUso = errors.New("email já cadastrado")
	// ErrCPFEmUso indica violação de unicidade do CPF.
	ErrCPFEmUso = errors.New("cpf já cadastrado")
	// ErrUltimoMasterDelete protege o último administrador master contra exclusão.
	ErrUltimoMasterDelete = errors.New("Não é possível deletar o último administrador master do sistema.")
	// ErrUltimoMasterDemote protege o último administrador master contra rebaixamento.
	ErrUltimoMasterDemote = errors.New("Não é possível remover o status master do último administrador do sistema.")
)

// Admin representa um administrador, vinculado um-para-um ao usuário.
type Admin struct {
	ID       uuid.UUID     `json:"id"`
	Master   bool          `json:"master"`
	Usuario  conta.Usuario `json:"usuario"`
	CriadoEm time.Time     `json:"criado_em"`
}

// Pagina agrega uma página de resultados da listagem.
type Pagina struct {
	Itens     []Admin `json:"itens"`
	Total     int64   `json:"total"`
	Pagina    int     `json:"pagina"`
	PorPagina int     `json:"por_pagina"`
}

// CreateInput carrega os campos de usuário e de papel para criação.
type CreateInput struct {
	Nome       string
	Email      string
	CPF        string
	Senha      string
	Telefone   *string
	Nascimento *time.Time
	Master     bool
}

// UpdateInput carrega alterações parciais; ponteiro nil preserva o valor atual.
type UpdateInput struct {
	Nome       *string
	Email      *string
	CPF        *string
	Senha      *string
	Telefone   *string
	Nascimento *time.Time
	Master     *bool
}
