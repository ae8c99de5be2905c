package auth

import (
	"github.com/alexedwards/argon2id"
)

// Parâmetros do Argon2id para as senhas da equipe. Ficam embutidos no hash,
// então podem evoluir sem invalidar credenciais antigas.
var passwordParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera o hash Argon2id de uma senha.
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, passwordParams)
}

// Verify compara a senha informada com o hash armazenado.
func Verify(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}
