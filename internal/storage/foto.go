package storage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Tipos de imagem aceitos para fotos de perfil.
var fotoExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ErrTipoFotoInvalido indica content-type fora dos formatos aceitos.
var ErrTipoFotoInvalido = errors.New("foto deve ser JPEG, PNG ou WebP")

// NovaChaveFoto gera a chave do objeto para uma foto de perfil.
func NovaChaveFoto(dir, contentType string) (string, error) {
	ext, ok := fotoExt[contentType]
	if !ok {
		return "", ErrTipoFotoInvalido
	}
	return fmt.Sprintf("%s/%s%s", dir, uuid.NewString(), ext), nil
}
