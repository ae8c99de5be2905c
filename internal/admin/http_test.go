package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/clinicavida/api/internal/http/middleware"
	"github.com/clinicavida/api/internal/storage"
)

func TestCreateHandlerNascimento(t *testing.T) {
	tests := []struct {
		name       string
		nascimento string
		status     int
	}{
		{"data válida", "1990-05-20", http.StatusCreated},
		{"data malformada", "20/05/1990", http.StatusBadRequest},
		{"campo vazio", "", http.StatusCreated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubAdminRepo()
			handler := NewHandler(NewService(repo, storage.NoopStorage{}), 5<<20)

			form := url.Values{}
			form.Set("nome", "Ana Souza")
			form.Set("email", "ana@clinicavida.com.br")
			form.Set("cpf", "52998224725")
			form.Set("senha", "segredo123")
			form.Set("nascimento", tc.nascimento)

			req := httptest.NewRequest(http.MethodPost, "/admin/admins/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req = withAdminAuth(req)
			rec := httptest.NewRecorder()

			r := chi.NewRouter()
			handler.RegisterRoutes(r)
			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("esperava %d, obteve %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
			if tc.status == http.StatusBadRequest && repo.createCalls != 0 {
				t.Fatalf("data inválida não deveria chegar ao repositório")
			}
		})
	}
}

func withAdminAuth(req *http.Request) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeySubject, uuid.NewString())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyRoles, []string{"ADMIN"})
	return req.WithContext(ctx)
}
