package agenda

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/clinicavida/api/internal/http/middleware"
)

func TestAgendaHandlers(t *testing.T) {
	repo := newStubAgendaRepo()
	recepUsuario := uuid.New()

	svc := newTestService(repo)
	handler := NewHandler(svc)

	existente, err := svc.Agendar(context.Background(), recepUsuario, AgendarInput{
		PacienteID: uuid.New(),
		MedicoID:   repo.medicoID,
		Data:       "2026-03-11",
		Hora:       "10:00",
		Valor:      180,
	})
	if err != nil {
		t.Fatalf("seed agendamento: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		roles  []string
		user   uuid.UUID
		body   any
		status int
	}{
		{"listar", http.MethodGet, "/recepcao/agendamentos/", []string{"RECEPCIONISTA"}, recepUsuario, nil, http.StatusOK},
		{"listar-dia-invalido", http.MethodGet, "/recepcao/agendamentos/?dia=ontem", []string{"RECEPCIONISTA"}, recepUsuario, nil, http.StatusBadRequest},
		{"agendar", http.MethodPost, "/recepcao/agendamentos/", []string{"RECEPCIONISTA"}, recepUsuario,
			map[string]any{"paciente_id": uuid.New(), "medico_id": uuid.New(), "data": "2026-03-12", "hora": "11:00", "valor": 200}, http.StatusCreated},
		{"agendar-sem-papel", http.MethodPost, "/recepcao/agendamentos/", []string{"MEDICO"}, repo.medicoUsuario,
			map[string]any{"paciente_id": uuid.New(), "medico_id": uuid.New(), "data": "2026-03-12", "hora": "12:00", "valor": 200}, http.StatusForbidden},
		{"agendar-data-passada", http.MethodPost, "/recepcao/agendamentos/", []string{"RECEPCIONISTA"}, recepUsuario,
			map[string]any{"paciente_id": uuid.New(), "medico_id": uuid.New(), "data": "2020-01-01", "hora": "11:00", "valor": 200}, http.StatusBadRequest},
		{"buscar", http.MethodGet, "/recepcao/agendamentos/" + existente.ID.String(), []string{"RECEPCIONISTA"}, recepUsuario, nil, http.StatusOK},
		{"buscar-inexistente", http.MethodGet, "/recepcao/agendamentos/" + uuid.NewString(), []string{"RECEPCIONISTA"}, recepUsuario, nil, http.StatusNotFound},
		{"iniciar", http.MethodGet, "/medico/consultas/iniciar", []string{"MEDICO"}, repo.medicoUsuario, nil, http.StatusOK},
		{"finalizar", http.MethodPost, "/medico/consultas/finalizar", []string{"MEDICO"}, repo.medicoUsuario,
			map[string]any{"agendamento_id": existente.ID, "sintomas": "Febre", "diagnostico": "Virose"}, http.StatusCreated},
		{"finalizar-repetido", http.MethodPost, "/medico/consultas/finalizar", []string{"MEDICO"}, repo.medicoUsuario,
			map[string]any{"agendamento_id": existente.ID, "sintomas": "Febre", "diagnostico": "Virose"}, http.StatusUnprocessableEntity},
		{"cancelar-concluido", http.MethodPost, "/recepcao/agendamentos/" + existente.ID.String() + "/cancelar", []string{"RECEPCIONISTA"}, recepUsuario, nil, http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, requestBody(tc.body))
			req = withAuth(req, tc.user, tc.roles)
			rec := httptest.NewRecorder()

			r := chi.NewRouter()
			handler.RegisterRoutes(r)
			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("%s %s: expected %d got %d (%s)", tc.method, tc.path, tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCancelarViaHandlerLiberaHorario(t *testing.T) {
	repo := newStubAgendaRepo()
	recepUsuario := uuid.New()

	svc := newTestService(repo)
	handler := NewHandler(svc)

	ag, err := svc.Agendar(context.Background(), recepUsuario, AgendarInput{
		PacienteID: uuid.New(),
		MedicoID:   uuid.New(),
		Data:       "2026-03-15",
		Hora:       "09:30",
		Valor:      120,
	})
	if err != nil {
		t.Fatalf("seed agendamento: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/recepcao/agendamentos/"+ag.ID.String()+"/cancelar", bytes.NewBuffer(nil))
	req = withAuth(req, recepUsuario, []string{"RECEPCIONISTA"})
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if repo.agendamentos[ag.ID].Status != StatusCancelada {
		t.Fatalf("esperava status cancelada no repositório")
	}

	// O horário liberado aceita nova marcação.
	if _, err := svc.Agendar(context.Background(), recepUsuario, AgendarInput{
		PacienteID: uuid.New(),
		MedicoID:   uuid.New(),
		Data:       "2026-03-15",
		Hora:       "09:30",
		Valor:      120,
	}); err != nil {
		t.Fatalf("novo agendamento no horário liberado falhou: %v", err)
	}
}

func requestBody(body any) *bytes.Buffer {
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	b, _ := json.Marshal(body)
	return bytes.NewBuffer(b)
}

func withAuth(req *http.Request, user uuid.UUID, roles []string) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeySubject, user.String())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyRoles, roles)
	return req.WithContext(ctx)
}
