package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clinicavida/api/internal/admin"
	"github.com/clinicavida/api/internal/db"
	"github.com/clinicavida/api/internal/storage"
)

// bootstrap cria o primeiro administrador master quando o banco ainda está
// vazio. Depois disso a gestão da equipe acontece pela própria API.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("falha ao criar administrador inicial")
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bootstrap", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		nome  = fs.String("nome", "", "nome completo do administrador")
		email = fs.String("email", "", "e-mail de acesso")
		cpf   = fs.String("cpf", "", "CPF (apenas dígitos ou com máscara)")
		senha = fs.String("senha", "", "senha inicial (mínimo 8 caracteres)")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *nome == "" || *email == "" || *cpf == "" || *senha == "" {
		fs.Usage()
		return errors.New("nome, email, cpf e senha são obrigatórios")
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		return errors.New("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("conectar ao banco: %w", err)
	}
	defer pool.Close()

	service := admin.NewService(admin.NewRepository(pool), storage.NoopStorage{})

	criado, err := service.Create(ctx, admin.CreateInput{
		Nome:   *nome,
		Email:  *email,
		CPF:    *cpf,
		Senha:  *senha,
		Master: true,
	}, nil)
	if err != nil {
		return err
	}

	log.Info().
		Str("id", criado.ID.String()).
		Str("email", criado.Usuario.Email).
		Msg("administrador master criado")
	return nil
}
