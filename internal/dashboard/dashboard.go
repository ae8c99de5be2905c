package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/clinicavida/api/internal/http/middleware"
)

const (
	dbTimeout = 3 * time.Second
	cacheTTL  = 60 * time.Second
	cacheKey  = "dashboard:resumo"
)

// Resumo agrega os números exibidos na tela inicial do administrador.
type Resumo struct {
	Medicos          int64   `json:"medicos"`
	Recepcionistas   int64   `json:"recepcionistas"`
	Pacientes        int64   `json:"pacientes"`
	AgendamentosHoje int64   `json:"agendamentos_hoje"`
	Faturamento      float64 `json:"faturamento"`
}

// Repository lê os agregados direto do Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Resumo calcula as contagens e o faturamento das consultas concluídas.
func (r *Repository) Resumo(ctx context.Context, hoje time.Time) (Resumo, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var res Resumo
	err := r.pool.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM medicos),
            (SELECT COUNT(*) FROM recepcionistas),
            (SELECT COUNT(*) FROM pacientes),
            (SELECT COUNT(*) FROM agendamentos WHERE data::date = $1::date AND status = 'agendada'),
            (SELECT COALESCE(SUM(valor), 0) FROM agendamentos WHERE status = 'concluida')`,
		hoje,
	).Scan(&res.Medicos, &res.Recepcionistas, &res.Pacientes, &res.AgendamentosHoje, &res.Faturamento)
	return res, err
}

// ResumoProvider abstrai a leitura dos agregados.
type ResumoProvider interface {
	Resumo(ctx context.Context, hoje time.Time) (Resumo, error)
}

// Service aplica cache de curta duração sobre os agregados.
type Service struct {
	repo  ResumoProvider
	cache *redis.Client
	now   func() time.Time
}

func NewService(repo ResumoProvider, cache *redis.Client) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

func (s *Service) Resumo(ctx context.Context) (Resumo, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var res Resumo
			if err := json.Unmarshal([]byte(raw), &res); err == nil {
				return res, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("falha ao ler cache do dashboard")
		}
	}

	res, err := s.repo.Resumo(ctx, s.now())
	if err != nil {
		return Resumo{}, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(res); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("falha ao gravar cache do dashboard")
			}
		}
	}
	return res, nil
}

// Handler expõe o resumo para administradores.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/dashboard", func(r chi.Router) {
		r.Use(httpmiddleware.RequireAdmin)
		r.Get("/", h.handleResumo)
	})
}

// Mount adiciona a rota do dashboard no router.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}

func (h *Handler) handleResumo(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Resumo(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("dashboard handler error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type envelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: payload})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: map[string]string{"code": code, "message": message}})
}
