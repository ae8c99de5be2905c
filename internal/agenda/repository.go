package agenda

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

const dbTimeout = 3 * time.Second

const pageSize = 10

// Repository acessa agendamentos e consultas em Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const agendamentoColumns = `
    ag.id, ag.data, ag.status, ag.valor,
    ag.medico_id, um.nome, ag.paciente_id, p.nome,
    ag.recepcionista_id, ag.criado_em`

const agendamentoJoins = `
    FROM agendamentos ag
    JOIN medicos m ON m.id = ag.medico_id
    JOIN usuarios um ON um.id = m.usuario_id
    JOIN pacientes p ON p.id = ag.paciente_id`

func scanAgendamento(row pgx.Row) (Agendamento, error) {
	var ag Agendamento
	err := row.Scan(
		&ag.ID, &ag.Data, &ag.Status, &ag.Valor,
		&ag.MedicoID, &ag.MedicoNome, &ag.PacienteID, &ag.PacienteNome,
		&ag.RecepcionistaID, &ag.CriadoEm,
	)
	return ag, err
}

// RecepcionistaPorUsuario resolve o vínculo do usuário autenticado.
func (r *Repository) RecepcionistaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM recepcionistas WHERE usuario_id = $1`, usuarioID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrAtorInvalido
	}
	return id, err
}

// MedicoPorUsuario resolve o vínculo do usuário autenticado.
func (r *Repository) MedicoPorUsuario(ctx context.Context, usuarioID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM medicos WHERE usuario_id = $1`, usuarioID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrAtorInvalido
	}
	return id, err
}

// TemConflitoMedico verifica horário já ocupado do médico. É um pré-check de
// cortesia: o índice único parcial em agendamentos garante a exclusão mesmo
// sob concorrência.
func (r *Repository) TemConflitoMedico(ctx context.Context, medicoID uuid.UUID, data time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var ocupado bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM agendamentos
            WHERE medico_id = $1 AND data = $2 AND status <> 'cancelada'
        )`, medicoID, data).Scan(&ocupado)
	return ocupado, err
}

// TemConflitoPaciente verifica horário já ocupado do paciente.
func (r *Repository) TemConflitoPaciente(ctx context.Context, pacienteID uuid.UUID, data time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var ocupado bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM agendamentos
            WHERE paciente_id = $1 AND data = $2 AND status <> 'cancelada'
        )`, pacienteID, data).Scan(&ocupado)
	return ocupado, err
}

// CreateParams carrega os campos de inserção de um agendamento.
type CreateParams struct {
	Data            time.Time
	Valor           float64
	MedicoID        uuid.UUID
	PacienteID      uuid.UUID
	RecepcionistaID uuid.UUID
}

// Create insere o agendamento com status agendada e retorna o registro com os
// nomes resolvidos.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Agendamento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
        INSERT INTO agendamentos (data, status, valor, medico_id, paciente_id, recepcionista_id)
        VALUES ($1, 'agendada', $2, $3, $4, $5)
        RETURNING id`,
		params.Data, params.Valor, params.MedicoID, params.PacienteID, params.RecepcionistaID,
	).Scan(&id)
	if err != nil {
		return Agendamento{}, mapCreateErr(err)
	}

	return r.GetByID(ctx, id)
}

func mapCreateErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		switch pgErr.ConstraintName {
		case "agendamentos_medico_horario_uq":
			return ErrMedicoOcupado
		case "agendamentos_paciente_horario_uq":
			return ErrPacienteOcupado
		}
	case "23503":
		switch pgErr.ConstraintName {
		case "agendamentos_medico_id_fkey":
			return ErrMedicoInexistente
		case "agendamentos_paciente_id_fkey":
			return ErrPacienteInexistente
		}
	}
	return err
}

// GetByID busca um agendamento com nomes de médico e paciente.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Agendamento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	ag, err := scanAgendamento(r.pool.QueryRow(ctx,
		`SELECT`+agendamentoColumns+agendamentoJoins+` WHERE ag.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Agendamento{}, ErrNotFound
	}
	return ag, err
}

// List pagina os agendamentos da recepção, mais recentes primeiro.
func (r *Repository) List(ctx context.Context, filtro Filtro) (Pagina, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	where := ` WHERE ($1::date IS NULL OR ag.data::date = $1)
        AND ($2::uuid IS NULL OR ag.medico_id = $2)
        AND ($3::text = '' OR ag.status = $3)`

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)`+agendamentoJoins+where,
		filtro.Dia, filtro.MedicoID, filtro.Status,
	).Scan(&total); err != nil {
		return Pagina{}, err
	}

	pagina := filtro.Pagina
	if pagina < 1 {
		pagina = 1
	}
	offset := (pagina - 1) * pageSize

	rows, err := r.pool.Query(ctx,
		`SELECT`+agendamentoColumns+agendamentoJoins+where+`
        ORDER BY ag.data DESC
        LIMIT $4 OFFSET $5`,
		filtro.Dia, filtro.MedicoID, filtro.Status, pageSize, offset,
	)
	if err != nil {
		return Pagina{}, err
	}
	defer rows.Close()

	itens := make([]Agendamento, 0, pageSize)
	for rows.Next() {
		ag, err := scanAgendamento(rows)
		if err != nil {
			return Pagina{}, err
		}
		itens = append(itens, ag)
	}
	if err := rows.Err(); err != nil {
		return Pagina{}, err
	}

	return Pagina{Itens: itens, Total: total, Pagina: pagina, PorPagina: pageSize}, nil
}

// AgendaDoDia lista os agendamentos pendentes do médico no dia, em ordem de
// horário.
func (r *Repository) AgendaDoDia(ctx context.Context, medicoID uuid.UUID, dia time.Time) ([]Agendamento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT`+agendamentoColumns+agendamentoJoins+`
        WHERE ag.medico_id = $1 AND ag.data::date = $2::date AND ag.status = 'agendada'
        ORDER BY ag.data ASC`,
		medicoID, dia,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	itens := make([]Agendamento, 0, 8)
	for rows.Next() {
		ag, err := scanAgendamento(rows)
		if err != nil {
			return nil, err
		}
		itens = append(itens, ag)
	}
	return itens, rows.Err()
}

// ListPacientes lista todos os pacientes para a seleção ao iniciar consulta.
func (r *Repository) ListPacientes(ctx context.Context) ([]PacienteResumo, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT id, nome FROM pacientes ORDER BY nome ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	itens := make([]PacienteResumo, 0, 16)
	for rows.Next() {
		var p PacienteResumo
		if err := rows.Scan(&p.ID, &p.Nome); err != nil {
			return nil, err
		}
		itens = append(itens, p)
	}
	return itens, rows.Err()
}

// Cancelar move agendada → cancelada.
func (r *Repository) Cancelar(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`UPDATE agendamentos SET status = 'cancelada' WHERE id = $1 AND status = 'agendada'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var status string
	err = r.pool.QueryRow(ctx, `SELECT status FROM agendamentos WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrNaoAgendada
}

// ConsultaParams carrega o registro clínico a gravar ao finalizar.
type ConsultaParams struct {
	Sintomas    string
	Diagnostico string
	Observacoes *string
}

// Finalizar conclui o agendamento do próprio médico em uma transação: trava a
// linha, confere o status, grava a consulta e marca concluida. Agendamento de
// outro médico responde como inexistente.
func (r *Repository) Finalizar(ctx context.Context, medicoID, agendamentoID uuid.UUID, params ConsultaParams) (Consulta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var consulta Consulta
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx,
			`SELECT status FROM agendamentos WHERE id = $1 AND medico_id = $2 FOR UPDATE`,
			agendamentoID, medicoID,
		).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if status != StatusAgendada {
			return ErrNaoAgendada
		}

		err = tx.QueryRow(ctx, `
            INSERT INTO consultas (agendamento_id, sintomas, diagnostico, observacoes)
            VALUES ($1, $2, $3, $4)
            RETURNING id, agendamento_id, sintomas, diagnostico, observacoes, criado_em`,
			agendamentoID, params.Sintomas, params.Diagnostico, params.Observacoes,
		).Scan(&consulta.ID, &consulta.AgendamentoID, &consulta.Sintomas,
			&consulta.Diagnostico, &consulta.Observacoes, &consulta.CriadoEm)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrNaoAgendada
			}
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE agendamentos SET status = 'concluida' WHERE id = $1`, agendamentoID)
		return err
	})
	if err != nil {
		return Consulta{}, err
	}
	return consulta, nil
}

// ConsultaPorAgendamento busca o registro clínico de um agendamento concluído.
func (r *Repository) ConsultaPorAgendamento(ctx context.Context, agendamentoID uuid.UUID) (Consulta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var c Consulta
	err := r.pool.QueryRow(ctx, `
        SELECT id, agendamento_id, sintomas, diagnostico, observacoes, criado_em
        FROM consultas WHERE agendamento_id = $1`, agendamentoID,
	).Scan(&c.ID, &c.AgendamentoID, &c.Sintomas, &c.Diagnostico, &c.Observacoes, &c.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Consulta{}, ErrConsultaNotFound
	}
	return c, err
}
