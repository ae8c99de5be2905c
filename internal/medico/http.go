package medico

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/clinicavida/api/internal/http/middleware"
	"github.com/clinicavida/api/internal/storage"
	"github.com/clinicavida/api/internal/util"
)

// Handler orquestra as rotas de médicos (gestão feita por administradores).
type Handler struct {
	service      *Service
	fotoMaxBytes int64
}

func NewHandler(service *Service, fotoMaxBytes int64) *Handler {
	return &Handler{service: service, fotoMaxBytes: fotoMaxBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/medicos", func(r chi.Router) {
		r.Use(httpmiddleware.RequireAdmin)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	busca := r.URL.Query().Get("busca")
	pagina, _ := strconv.Atoi(r.URL.Query().Get("pagina"))

	page, err := h.service.List(r.Context(), busca, pagina)
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

	med, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, med)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	foto, err := h.parseForm(w, r)
	if err != nil {
		return
	}

	nascimento, err := parseDataField(r, "nascimento")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "data de nascimento inválida", nil)
		return
	}

	input := CreateInput{
		Nome:       r.FormValue("nome"),
		Email:      r.FormValue("email"),
		CPF:        r.FormValue("cpf"),
		Senha:      r.FormValue("senha"),
		Telefone:   optionalField(r, "telefone"),
		Nascimento: nascimento,
		CRM:        r.FormValue("crm"),
	}

	med, err := h.service.Create(r.Context(), input, foto)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, med)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	foto, err := h.parseForm(w, r)
	if err != nil {
		return
	}

	nascimento, err := parseDataField(r, "nascimento")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "data de nascimento inválida", nil)
		return
	}

	input := UpdateInput{
		Nome:       optionalField(r, "nome"),
		Email:      optionalField(r, "email"),
		CPF:        optionalField(r, "cpf"),
		Senha:      optionalField(r, "senha"),
		Telefone:   optionalField(r, "telefone"),
		Nascimento: nascimento,
		CRM:        optionalField(r, "crm"),
	}

	med, err := h.service.Update(r.Context(), id, input, foto)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, med)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removido"})
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (*FotoUpload, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.fotoMaxBytes); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "formulário inválido", nil)
			return nil, err
		}
		return h.parseFoto(w, r)
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "formulário inválido", nil)
		return nil, err
	}
	return nil, nil
}

func (h *Handler) parseFoto(w http.ResponseWriter, r *http.Request) (*FotoUpload, error) {
	file, _, err := r.FormFile("foto")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "foto inválida", nil)
		return nil, err
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, h.fotoMaxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "foto inválida", nil)
		return nil, err
	}
	if int64(len(body)) > h.fotoMaxBytes {
		writeError(w, http.StatusBadRequest, "VALIDATION", "foto excede o tamanho máximo", nil)
		return nil, errors.New("foto muito grande")
	}

	return &FotoUpload{Conteudo: body, ContentType: http.DetectContentType(body)}, nil
}

func optionalField(r *http.Request, name string) *string {
	if vals, ok := r.Form[name]; ok && len(vals) > 0 {
		v := vals[0]
		return &v
	}
	return nil
}

func parseDataField(r *http.Request, name string) (*time.Time, error) {
	raw := optionalField(r, name)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func handleDomainError(w http.ResponseWriter, err error) {
	var verr util.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", ErrNotFound.Error(), nil)
	case errors.Is(err, ErrEmailEmUso):
		writeError(w, http.StatusConflict, "CONFLICT", ErrEmailEmUso.Error(), nil)
	case errors.Is(err, ErrCPFEmUso):
		writeError(w, http.StatusConflict, "CONFLICT", ErrCPFEmUso.Error(), nil)
	case errors.Is(err, ErrCRMEmUso):
		writeError(w, http.StatusConflict, "CONFLICT", ErrCRMEmUso.Error(), nil)
	case errors.Is(err, ErrPossuiAgendamentos):
		writeError(w, http.StatusUnprocessableEntity, "VINCULADO", ErrPossuiAgendamentos.Error(), nil)
	case errors.Is(err, storage.ErrTipoFotoInvalido):
		writeError(w, http.StatusBadRequest, "VALIDATION", storage.ErrTipoFotoInvalido.Error(), nil)
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "VALIDATION", verr.Error(), nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("medico handler error")
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
