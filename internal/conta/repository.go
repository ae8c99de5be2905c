package conta

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound é retornado quando o usuário não existe.
var ErrNotFound = errors.New("usuário não encontrado")

const dbTimeout = 3 * time.Second

// Repository fornece acesso à tabela de usuários e aos vínculos de papel.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const usuarioColumns = `id, nome, email, cpf, senha_hash, telefone, nascimento, foto_url, criado_em`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.CPF, &u.SenhaHash, &u.Telefone, &u.Nascimento, &u.FotoURL, &u.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// GetByEmail recupera usuário pelo e-mail normalizado.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	normalized := strings.ToLower(strings.TrimSpace(email))
	row := r.pool.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE email = $1`, normalized)
	return scanUsuario(row)
}

// GetByID recupera usuário pelo ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE id = $1`, id)
	return scanUsuario(row)
}

// GetPerfil monta o perfil completo: identidade + papéis vinculados.
func (r *Repository) GetPerfil(ctx context.Context, usuarioID uuid.UUID) (Perfil, error) {
	usuario, err := r.GetByID(ctx, usuarioID)
	if err != nil {
		return Perfil{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	perfil := Perfil{Usuario: usuario}

	var adminID uuid.UUID
	var master bool
	err = r.pool.QueryRow(ctx, `SELECT id, master FROM admins WHERE usuario_id = $1`, usuarioID).Scan(&adminID, &master)
	switch {
	case err == nil:
		perfil.AdminID = &adminID
		perfil.Master = master
		perfil.Roles = append(perfil.Roles, "ADMIN")
	case !errors.Is(err, pgx.ErrNoRows):
		return Perfil{}, err
	}

	var medicoID uuid.UUID
	err = r.pool.QueryRow(ctx, `SELECT id FROM medicos WHERE usuario_id = $1`, usuarioID).Scan(&medicoID)
	switch {
	case err == nil:
		perfil.MedicoID = &medicoID
		perfil.Roles = append(perfil.Roles, "MEDICO")
	case !errors.Is(err, pgx.ErrNoRows):
		return Perfil{}, err
	}

	var recepID uuid.UUID
	err = r.pool.QueryRow(ctx, `SELECT id FROM recepcionistas WHERE usuario_id = $1`, usuarioID).Scan(&recepID)
	switch {
	case err == nil:
		perfil.RecepcionistaID = &recepID
		perfil.Roles = append(perfil.Roles, "RECEPCIONISTA")
	case !errors.Is(err, pgx.ErrNoRows):
		return Perfil{}, err
	}

	if len(perfil.Roles) == 0 {
		return Perfil{}, ErrNotFound
	}

	return perfil, nil
}
