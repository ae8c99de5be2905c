package agenda

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/clinicavida/api/internal/http/middleware"
	"github.com/clinicavida/api/internal/util"
)

// Handler orquestra as rotas de agendamentos (recepção) e consultas (médico).
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/recepcao/agendamentos", func(r chi.Router) {
		r.Use(httpmiddleware.RequireRecepcionista)
		r.Get("/", h.handleList)
		r.Post("/", h.handleAgendar)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/cancelar", h.handleCancelar)
	})

	r.Route("/medico/consultas", func(r chi.Router) {
		r.Use(httpmiddleware.RequireMedico)
		r.Get("/iniciar", h.handleIniciar)
		r.Post("/finalizar", h.handleFinalizar)
	})
}

type agendarRequest struct {
	PacienteID uuid.UUID `json:"paciente_id"`
	MedicoID   uuid.UUID `json:"medico_id"`
	Data       string    `json:"data"`
	Hora       string    `json:"hora"`
	Valor      float64   `json:"valor"`
}

func (h *Handler) handleAgendar(w http.ResponseWriter, r *http.Request) {
	usuarioID, ok := subjectAsUUID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sessão inválida", nil)
		return
	}

	var req agendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	ag, err := h.service.Agendar(r.Context(), usuarioID, AgendarInput{
		PacienteID: req.PacienteID,
		MedicoID:   req.MedicoID,
		Data:       req.Data,
		Hora:       req.Hora,
		Valor:      req.Valor,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ag)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var filtro Filtro
	filtro.Status = r.URL.Query().Get("status")
	filtro.Pagina, _ = strconv.Atoi(r.URL.Query().Get("pagina"))

	if raw := r.URL.Query().Get("dia"); raw != "" {
		dia, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "dia inválido; use o formato AAAA-MM-DD", nil)
			return
		}
		filtro.Dia = &dia
	}
	if raw := r.URL.Query().Get("medico"); raw != "" {
		medicoID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "medico inválido", nil)
			return
		}
		filtro.MedicoID = &medicoID
	}

	page, err := h.service.Listar(r.Context(), filtro)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	ag, consulta, err := h.service.Buscar(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"agendamento": ag,
		"consulta":    consulta,
	})
}

func (h *Handler) handleCancelar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.service.Cancelar(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": StatusCancelada})
}

func (h *Handler) handleIniciar(w http.ResponseWriter, r *http.Request) {
	usuarioID, ok := subjectAsUUID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sessão inválida", nil)
		return
	}

	inicio, err := h.service.IniciarConsulta(r.Context(), usuarioID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, inicio)
}

type finalizarRequest struct {
	AgendamentoID uuid.UUID `json:"agendamento_id"`
	Sintomas      string    `json:"sintomas"`
	Diagnostico   string    `json:"diagnostico"`
	Observacoes   *string   `json:"observacoes"`
}

func (h *Handler) handleFinalizar(w http.ResponseWriter, r *http.Request) {
	usuarioID, ok := subjectAsUUID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sessão inválida", nil)
		return
	}

	var req finalizarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	consulta, err := h.service.FinalizarConsulta(r.Context(), usuarioID, FinalizarInput{
		AgendamentoID: req.AgendamentoID,
		Sintomas:      req.Sintomas,
		Diagnostico:   req.Diagnostico,
		Observacoes:   req.Observacoes,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, consulta)
}

func subjectAsUUID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func handleDomainError(w http.ResponseWriter, err error) {
	var verr util.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", ErrNotFound.Error(), nil)
	case errors.Is(err, ErrConsultaNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", ErrConsultaNotFound.Error(), nil)
	case errors.Is(err, ErrMedicoInexistente):
		writeError(w, http.StatusNotFound, "NOT_FOUND", ErrMedicoInexistente.Error(), nil)
	case errors.Is(err, ErrPacienteInexistente):
		writeError(w, http.StatusNotFound, "NOT_FOUND", ErrPacienteInexistente.Error(), nil)
	case errors.Is(err, ErrMedicoOcupado):
		writeError(w, http.StatusConflict, "HORARIO_OCUPADO", ErrMedicoOcupado.Error(), nil)
	case errors.Is(err, ErrPacienteOcupado):
		writeError(w, http.StatusConflict, "HORARIO_OCUPADO", ErrPacienteOcupado.Error(), nil)
	case errors.Is(err, ErrNaoAgendada):
		writeError(w, http.StatusUnprocessableEntity, "STATUS_INVALIDO", ErrNaoAgendada.Error(), nil)
	case errors.Is(err, ErrAtorInvalido):
		writeError(w, http.StatusForbidden, "FORBIDDEN", ErrAtorInvalido.Error(), nil)
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "VALIDATION", verr.Error(), nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("agenda handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

// Helpers de resposta JSON compatíveis com o resto do projeto.
type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Data: nil, Error: &errorResponse{Code: code, Message: message, Details: details}})
}
