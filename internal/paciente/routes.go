package paciente

import (
	"github.com/go-chi/chi/v5"
)

// Mount adiciona as rotas de pacientes no router.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
