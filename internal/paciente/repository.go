package paciente

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbTimeout = 3 * time.Second
	pageSize  = 8
)

// Repository fornece acesso aos pacientes.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Params contém a linha completa a gravar.
type Params struct {
	Nome              string
	Email             string
	CPF               string
	Genero            *string
	Telefone          *string
	Nascimento        *time.Time
	ContatoEmergencia *string
	HistoricoMedico   *string
}

const selectPaciente = `
	SELECT id, nome, email, cpf, genero, telefone, nascimento, contato_emergencia, historico_medico, criado_em
	FROM pacientes
`

func scanPaciente(row pgx.Row) (Paciente, error) {
	var p Paciente
	err := row.Scan(&p.ID, &p.Nome, &p.Email, &p.CPF, &p.Genero, &p.Telefone, &p.Nascimento, &p.ContatoEmergencia, &p.HistoricoMedico, &p.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// GetByID recupera um paciente.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Paciente, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, selectPaciente+` WHERE id = $1`, id)
	return scanPaciente(row)
}

// List devolve uma página em ordem reverso-cronológica; a busca compara
// substring sem diferenciar maiúsculas contra nome, e-mail e CPF.
func (r *Repository) List(ctx context.Context, busca string, pagina int) (Pagina, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if pagina < 1 {
		pagina = 1
	}

	const filtro = `($1 = '' OR nome ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%' OR cpf ILIKE '%' || $1 || '%')`

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM pacientes WHERE `+filtro, busca).Scan(&total)
	if err != nil {
		return Pagina{}, err
	}

	rows, err := r.pool.Query(ctx, selectPaciente+`
		WHERE `+filtro+`
		ORDER BY criado_em DESC
		LIMIT $2 OFFSET $3
	`, busca, pageSize, (pagina-1)*pageSize)
	if err != nil {
		return Pagina{}, err
	}
	defer rows.Close()

	itens := []Paciente{}
	for rows.Next() {
		p, err := scanPaciente(rows)
		if err != nil {
			return Pagina{}, err
		}
		itens = append(itens, p)
	}
	if rows.Err() != nil {
		return Pagina{}, rows.Err()
	}

	return Pagina{Itens: itens, Total: total, Pagina: pagina, PorPagina: pageSize}, nil
}

// Create insere um paciente.
func (r *Repository) Create(ctx context.Context, params Params) (Paciente, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO pacientes (nome, email, cpf, genero, telefone, nascimento, contato_emergencia, historico_medico)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8)
		RETURNING id, nome, email, cpf, genero, telefone, nascimento, contato_emergencia, historico_medico, criado_em
	`, params.Nome, params.Email, params.CPF, params.Genero, params.Telefone, params.Nascimento, params.ContatoEmergencia, params.HistoricoMedico)

	p, err := scanPaciente(row)
	if err != nil {
		return Paciente{}, mapConstraintErr(err)
	}
	return p, nil
}

// Update grava a linha completa resultante da atualização.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params Params) (Paciente, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		UPDATE pacientes
		SET nome = $2, email = lower($3), cpf = $4, genero = $5, telefone = $6,
		    nascimento = $7, contato_emergencia = $8, historico_medico = $9, atualizado_em = now()
		WHERE id = $1
		RETURNING id, nome, email, cpf, genero, telefone, nascimento, contato_emergencia, historico_medico, criado_em
	`, id, params.Nome, params.Email, params.CPF, params.Genero, params.Telefone, params.Nascimento, params.ContatoEmergencia, params.HistoricoMedico)

	p, err := scanPaciente(row)
	if err != nil {
		return Paciente{}, mapConstraintErr(err)
	}
	return p, nil
}

// Delete remove o paciente. Pacientes com agendamentos são protegidos
// pela foreign key, que vira erro de domínio.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM pacientes WHERE id = $1`, id)
	if err != nil {
		return mapConstraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		switch pgErr.ConstraintName {
		case "pacientes_email_key":
			return ErrEmailEmUso
		case "pacientes_cpf_key":
			return ErrCPFEmUso
		}
	case "23503":
		return ErrPossuiAgendamentos
	}
	return err
}
