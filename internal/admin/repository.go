package admin

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

// Repository fornece acesso aos administradores e seus usuários.
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
	Master     bool
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
	Master     bool
}

const selectAdmin = `
	SELECT a.id, a.master, a.criado_em,
	       u.id, u.nome, u.email, u.cpf, u.senha_hash, u.telefone, u.nascimento, u.foto_url, u.criado_em
	FROM admins a
	JOIN usuarios u ON u.id = a.usuario_id
`

func scanAdmin(row pgx.Row) (Admin, error) {
	var a Admin
	err := row.Scan(
		&a.ID, &a.Master, &a.CriadoEm,
		&a.Usuario.ID, &a.Usuario.Nome, &a.Usuario.Email, &a.Usuario.CPF, &a.Usuario.SenhaHash,
		&a.Usuario.Telefone, &a.Usuario.Nascimento, &a.Usuario.FotoURL, &a.Usuario.CriadoEm,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// GetByID recupera um administrador com seu usuário.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, selectAdmin+` WHERE a.id = $1`, id)
	return scanAdmin(row)
}

// List devolve uma página em ordem reverso-cronológica. Busca vazia retorna
// a listagem sem filtro; caso contrário compara substring sem diferenciar
// maiúsculas contra nome, e-mail e CPF.
func (r *Repository) List(ctx context.Context, busca string, pagina int) (Pagina, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if pagina < 1 {
		pagina = 1
	}

	const filtro = `($1 = '' OR u.nome ILIKE '%' || $1 || '%' OR u.email ILIKE '%' || $1 || '%' OR u.cpf ILIKE '%' || $1 || '%')`

	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM admins a
		JOIN usuarios u ON u.id = a.usuario_id
		WHERE `+filtro, busca).Scan(&total)
	if err != nil {
		return Pagina{}, err
	}

	rows, err := r.pool.Query(ctx, selectAdmin+`
		WHERE `+filtro+`
		ORDER BY a.criado_em DESC
		LIMIT $2 OFFSET $3
	`, busca, pageSize, (pagina-1)*pageSize)
	if err != nil {
		return Pagina{}, err
	}
	defer rows.Close()

	itens := []Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return Pagina{}, err
		}
		itens = append(itens, a)
	}
	if rows.Err() != nil {
		return Pagina{}, rows.Err()
	}

	return Pagina{Itens: itens, Total: total, Pagina: pagina, PorPagina: pageSize}, nil
}

// Create insere usuário e papel na mesma transação.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Admin, error) {
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
			return mapUniqueErr(err)
		}

		return tx.QueryRow(ctx, `
			INSERT INTO admins (usuario_id, master)
			VALUES ($1, $2)
			RETURNING id
		`, usuarioID, params.Master).Scan(&id)
	})
	if err != nil {
		return Admin{}, err
	}

	return r.GetByID(ctx, id)
}

// Update grava usuário e papel na mesma transação.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE usuarios
			SET nome = $2, email = lower($3), cpf = $4, senha_hash = $5,
			    telefone = $6, nascimento = $7, foto_url = $8, atualizado_em = now()
			WHERE id = (SELECT usuario_id FROM admins WHERE id = $1)
		`, id, params.Nome, params.Email, params.CPF, params.SenhaHash, params.Telefone, params.Nascimento, params.FotoURL)
		if err != nil {
			return mapUniqueErr(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		_, err = tx.Exec(ctx, `UPDATE admins SET master = $2 WHERE id = $1`, id, params.Master)
		return err
	})
	if err != nil {
		return Admin{}, err
	}

	return r.GetByID(ctx, id)
}

// Delete remove o usuário dono do papel; o admin cai pelo ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM usuarios
		WHERE id = (SELECT usuario_id FROM admins WHERE id = $1)
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountMasters conta os administradores master atuais.
func (r *Repository) CountMasters(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM admins WHERE master`).Scan(&total)
	return total, err
}

func mapUniqueErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "usuarios_email_key":
			return ErrEmailEmUso
		case "usuarios_cpf_key":
			return ErrCPFEmUso
		}
	}
	return err
}
