package storage

import (
	"context"
	"errors"
)

// NoopStorage devolve erro no upload e ignora deleções. Permite subir a API
// sem backend de fotos configurado.
type NoopStorage struct{}

// Upload sempre retorna erro, sinalizando que o recurso não está disponível.
func (NoopStorage) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, errors.New("storage: backend não configurado")
}

// Delete é um no-op: não há blob para remover.
func (NoopStorage) Delete(ctx context.Context, key string) error {
	return nil
}
