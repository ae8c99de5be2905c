package recepcao

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

// Repository fornece acesso às recepcionistas e seus usuários.
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
	Registro   string
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
	Registro   string
}

const selectRecepcionista = `
	SELECT rc.id, rc.registro, rc.criado_em,
	       u.id, u.nome, u.email, u.cpf, u.senha_hash, u.telefone, u.nascimento, u.foto_url, u.criado_em
	FROM recepcionistas rc
	JOIN usuarios u ON u.id = rc.usuario_id
`

func scanRecepcionista(row pgx.Row) (Recepcionista, error) {
	var rc Recepcionista
	err := row.Scan(
		&rc.ID, &rc.Registro, &rc.CriadoEm,
		&rc.Usuario.ID, &rc.Usuario.Nome, &rc.Usuario.Email, &rc.Usuario.CPF, &rc.Usuario.SenhaHash,
		&rc.Usuario.Telefone, &rc.Usuario.Nascimento, &rc.Usuario.FotoURL, &rc.Usuario.CriadoEm,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return rc, ErrNotFound
	}
	return rc, err
}

// GetByID recupera uma recepcionista com seu usuário.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Recepcionista, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, selectRecepcionista+` WHERE rc.id = $1`, id)
	return scanRecepcionista(row)
}

// List devolve uma página em ordem reverso-cronológica; a busca compara
// substring sem diferenciar maiúsculas contra nome, e-mail, CPF e registro.
func (r *Repository) List(ctx context.Context, busca string, pagina int) (Pagina, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if pagina < 1 {
		pagina = 1
	}

	const filtro = `($1 = '' OR u.nome ILIKE '%' || $1 || '%' OR u.email ILIKE '%' || $1 || '%' OR u.cpf ILIKE '%' || $1 || '%' OR rc.registro ILIKE '%' || $1 || '%')`

	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM recepcionistas rc
		JOIN usuarios u ON u.id = rc.usuario_id
		WHERE `+filtro, busca).Scan(&total)
	if err != nil {
		return Pagina{}, err
	}

	rows, err := r.pool.Query(ctx, selectRecepcionista+`
		WHERE `+filtro+`
		ORDER BY rc.criado_em DESC
		LIMIT $2 OFFSET $3
	`, busca, pageSize, (pagina-1)*pageSize)
	if err != nil {
		return Pagina{}, err
	}
	defer rows.Close()

	itens := []Recepcionista{}
	for rows.Next() {
		rc, err := scanRecepcionista(rows)
		if err != nil {
			return Pagina{}, err
		}
		itens = append(itens, rc)
	}
	if rows.Err() != nil {
		return Pagina{}, rows.Err()
	}

	return Pagina{Itens: itens, Total: total, Pagina: pagina, PorPagina: pageSize}, nil
}

// Create insere usuário e papel na mesma transação.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Recepcionista, error) {
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
			INSERT INTO recepcionistas (usuario_id, registro)
			VALUES ($1, $2)
			RETURNING id
		`, usuarioID, params.Registro).Scan(&id); err != nil {
			return mapConstraintErr(err)
		}
		return nil
	})
	if err != nil {
		return Recepcionista{}, err
	}

	return r.GetByID(ctx, id)
}

// Update grava usuário e papel na mesma transação.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Recepcionista, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE usuarios
			SET nome = $2, email = lower($3), cpf = $4, senha_hash = $5,
			    telefone = $6, nascimento = $7, foto_url = $8, atualizado_em = now()
			WHERE id = (SELECT usuario_id FROM recepcionistas WHERE id = $1)
		`, id, params.Nome, params.Email, params.CPF, params.SenhaHash, params.Telefone, params.Nascimento, params.FotoURL)
		if err != nil {
			return mapConstraintErr(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		if _, err := tx.Exec(ctx, `UPDATE recepcionistas SET registro = $2 WHERE id = $1`, id, params.Registro); err != nil {
			return mapConstraintErr(err)
		}
		return nil
	})
	if err != nil {
		return Recepcionista{}, err
	}

	return r.GetByID(ctx, id)
}

// Delete remove o usuário dono do papel; a recepcionista cai pelo ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM usuarios
		WHERE id = (SELECT usuario_id FROM recepcionistas WHERE id = $1)
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
		case "recepcionistas_registro_key":
			return ErrRegistroEmUso
		}
	case "23503":
		return ErrPossuiAgendamentos
	}
	return err
}
