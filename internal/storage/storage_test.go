package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testConfig(endpoint string) S3Config {
	return S3Config{
		Endpoint:  endpoint,
		Region:    "auto",
		Bucket:    "clinica",
		AccessKey: "test-access",
		SecretKey: "test-secret",
	}
}

func TestNovaChaveFoto(t *testing.T) {
	key, err := NovaChaveFoto("equipe/medicos", "image/png")
	if err != nil {
		t.Fatalf("esperava chave, obteve erro %v", err)
	}
	if !strings.HasPrefix(key, "equipe/medicos/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("chave fora do padrão: %q", key)
	}

	if _, err := NovaChaveFoto("equipe/medicos", "application/pdf"); !errors.Is(err, ErrTipoFotoInvalido) {
		t.Fatalf("esperava ErrTipoFotoInvalido, obteve %v", err)
	}
}

func TestUploadAssinaEEnvia(t *testing.T) {
	var gotPath, gotAuth, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s3, err := NewS3Storage(testConfig(server.URL))
	if err != nil {
		t.Fatalf("config inválida: %v", err)
	}

	res, err := s3.Upload(context.Background(), UploadInput{
		Key:         "equipe/admins/foto.jpg",
		Body:        []byte("conteudo"),
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("upload falhou: %v", err)
	}

	if gotPath != "/clinica/equipe/admins/foto.jpg" {
		t.Fatalf("caminho inesperado: %q", gotPath)
	}
	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256") {
		t.Fatalf("esperava assinatura SigV4, obteve %q", gotAuth)
	}
	if gotType != "image/jpeg" {
		t.Fatalf("content-type inesperado: %q", gotType)
	}
	if res.ETag != "abc123" {
		t.Fatalf("etag inesperado: %q", res.ETag)
	}
}

func TestDeleteTolera404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("esperava DELETE, obteve %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s3, err := NewS3Storage(testConfig(server.URL))
	if err != nil {
		t.Fatalf("config inválida: %v", err)
	}

	if err := s3.Delete(context.Background(), "equipe/admins/sumiu.jpg"); err != nil {
		t.Fatalf("404 no delete não deveria ser erro: %v", err)
	}
}

func TestDeletePropagaFalhaDoServidor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s3, err := NewS3Storage(testConfig(server.URL))
	if err != nil {
		t.Fatalf("config inválida: %v", err)
	}

	if err := s3.Delete(context.Background(), "equipe/admins/foto.jpg"); err == nil {
		t.Fatalf("esperava erro para resposta 403")
	}
}

func TestKeyFromURL(t *testing.T) {
	s3, err := NewS3Storage(testConfig("https://s3.example.com"))
	if err != nil {
		t.Fatalf("config inválida: %v", err)
	}

	casos := map[string]string{
		"https://s3.example.com/clinica/equipe/admins/foto.jpg": "equipe/admins/foto.jpg",
		"https://cdn.example.com/equipe/admins/foto.jpg":        "equipe/admins/foto.jpg",
	}
	for entrada, esperado := range casos {
		if got := s3.KeyFromURL(entrada); got != esperado {
			t.Fatalf("KeyFromURL(%q) = %q, esperava %q", entrada, got, esperado)
		}
	}
}
