package medico

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicavida/api/internal/db"
)

const (
	dbTimeout = 3 * time.Second
	pageSize  = 10
)

// Repository fornece acesso aos médicos e seus usuários.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateParams contém a linha completa a inserir (usuário + papel).
type CreateParams struct {
	Nome       string
	Email      string
	CPF        string
	SenhaHash  string
	Telefone   *string
	Nascimento *time.Time
	FotoURL    *string
	CRM        string
}

// UpdateParams contém a linha completa resultante da atualização.
type UpdateParams struct {
	Nome       string
	Email      string
	CPF        string
	SenhaHash  string
	Telefone   *string
	Nascimento *time.Time
	FotoURL    *string
	CRM        string
}

const selectMedico = `
	SELECT m.id, m.crm, m.criado_em,
	       u.id, u.nome, u.email, u.cpf, u.senha_hash, u.telefone, u.nascimento, u.foto_url, u.criado_em
	FROM medicos m
	JOIN usuarios u ON u.id = m.usuario_id
`

func scanMedico(row pgx.Row) (Medico, error) {
	var m Medico
	err := row.Scan(
		&m.ID, &m.CRM, &m.CriadoEm,
		&m.Usuario.ID, &m.Usuario.Nome, &m.Usuario.Email, &m.Usuario.CPF, &m.Usuario.SenhaHash,
		&m.Usuario.Telefone, &m.Usuario.Nascimento, &m.Usuario.FotoURL, &m.Usuario.CriadoEm,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// GetByID recupera um médico com seu usuário.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Medico, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, selectMedico+` WHERE m.id = $1`, id)
	return scanMedico(row)
}

// List devolve uma página em ordem reverso-cronológica; a busca compara
// substring sem diferenciar maiúsculas contra nome, e-mail, CPF e CRM.
func (r *Repository) List(ctx context.Context, busca string, pagina int) (Pagina, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if pagina < 1 {
		pagina = 1
	}

	const filtro = `($1 = '' OR u.nome ILIKE '%' || $1 || '%' OR u.email ILIKE '%' || $1 || '%' OR u.cpf ILIKE '%' || $1 || '%' OR m.crm ILIKE '%' || $1 || '%')`

	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM medicos m
		JOIN usuarios u ON u.id = m.usuario_id
		WHERE `+filtro, busca).Scan(&total)
	if err != nil {
		return Pagina{}, err
	}

	rows, err := r.pool.Query(ctx, selectMedico+`
		WHERE `+filtro+`
		ORDER BY m.criado_em DESC
		LIMIT $2 OFFSET $3
	`, busca, pageSize, (pagina-1)*pageSize)
	if err != nil {
		return Pagina{}, err
	}
	defer rows.Close()

	itens := []Medico{}
	for rows.Next() {
		m, err := scanMedico(rows)
		if err != nil {
			return Pagina{}, err
		}
		itens = append(itens, m)
	}
	if rows.Err() != nil {
		return Pagina{}, rows.Err()
	}

	return Pagina{Itens: itens, Total: total, Pagina: pagina, PorPagina: pageSize}, nil
}

// Create insere usuário e papel na mesma transação.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Medico, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var usuarioID uuid.UUID
		if err := tx.QueryRow(ctx, `
			INSERT INTO usuarios (nome, email, cpf, senha_hash, telefone, nascimento, foto_url)
			VALUES ($1, lower($2), $3, $4, $5, $6, $7)
			RETURNING id
		`, params.Nome, params.Email, params.CPF, params.SenhaHash, params.Telefone, params.Nascimento, params.FotoURL).Scan(&usuarioID); err != nil {
			return mapConstraintErr(err)
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO medicos (usuario_id, crm)
			VALUES ($1, $2)
			RETURNING id
		`, usuarioID, params.CRM).Scan(&id); err != nil {
			return mapConstraintErr(err)
		}
		return nil
	})
	if err != nil {
		return Medico{}, err
	}

	return r.GetByID(ctx, id)
}

// Update grava usuário e papel na mesma transação.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Medico, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE usuarios
			SET nome = $2, email = lower($3), cpf = $4, senha_hash = $5,
			    telefone = $6, nascimento = $7, foto_url = $8, atualizado_em = now()
			WHERE id = (SELECT usuario_id FROM medicos WHERE id = $1)
		`, id, params.Nome, params.Email, params.CPF, params.SenhaHash, params.Telefone, params.Nascimento, params.FotoURL)
		if err != nil {
			return mapConstraintErr(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		if _, err := tx.Exec(ctx, `UPDATE medicos SET crm = $2 WHERE id = $1`, id, params.CRM); err != nil {
			return mapConstraintErr(err)
		}
		return nil
	})
	if err != nil {
		return Medico{}, err
	}

	return r.GetByID(ctx, id)
}

// Delete remove o usuário dono do papel; o médico cai pelo ON DELETE CASCADE.
// Agendamentos referenciam o médico sem cascade, então a exclusão de um
// médico com histórico falha na foreign key e vira erro de domínio.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM usuarios
		WHERE id = (SELECT usuario_id FROM medicos WHERE id = $1)
	`, id)
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
		case "usuarios_email_key":
			return ErrEmailEmUso
		case "usuarios_cpf_key":
			return ErrCPFEmUso
		case "medicos_crm_key":
			return ErrCRMEmUso
		}
	case "23503":
		return ErrPossuiAgendamentos
	}
	return err
}
