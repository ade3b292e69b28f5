package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"atelier/auth"
	"atelier/config"
	"atelier/storage"
	"atelier/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTestConfig(t *testing.T, c config.Config) {
	t.Helper()
	old := config.Path()
	config.SetPath(filepath.Join(t.TempDir(), "atelier_config.json"))
	t.Cleanup(func() { config.SetPath(old) })
	require.NoError(t, config.SaveConfig(c))
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.NewDB(t)
	store, err := storage.NewDiskStore(t.TempDir(), "")
	require.NoError(t, err)
	return SetupRoutes(db, store)
}

func adminToken(t *testing.T, secret string) string {
	t.Helper()
	tok, _, err := auth.IssueToken("admin@atelier.test", secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestRoutes_PublicCatalog(t *testing.T) {
	useTestConfig(t, config.Config{})
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoutes_AdminRequiresToken(t *testing.T) {
	useTestConfig(t, config.Config{JWTSecret: "s3cret"})
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "s3cret"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfigHandlers_SecretsBlankedAndPreserved(t *testing.T) {
	useTestConfig(t, config.Config{
		StoreName:         "Atelier",
		AdminEmail:        "admin@atelier.test",
		AdminPasswordHash: "hash",
		JWTSecret:         "s3cret",
	})
	router := newTestRouter(t)
	token := adminToken(t, "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/config", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got config.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Atelier", got.StoreName)
	assert.Empty(t, got.AdminPasswordHash)
	assert.Empty(t, got.JWTSecret)

	got.StoreName = "Maison"
	got.WhatsAppNumber = "+55 (11) 99999-0000"
	got.MediaDir = t.TempDir()
	body, err := json.Marshal(got)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/config", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved := config.GetConfig()
	assert.Equal(t, "Maison", saved.StoreName)
	assert.Equal(t, "hash", saved.AdminPasswordHash)
	assert.Equal(t, "s3cret", saved.JWTSecret)
}

func TestSaveConfigHandler_KeepsEnvSecretOutOfFile(t *testing.T) {
	useTestConfig(t, config.Config{JWTSecret: "file-secret", AdminPasswordHash: "hash"})
	t.Setenv("ATELIER_JWT_SECRET", "env-secret")
	_, err := config.LoadConfig()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	SaveConfigHandler()(rec, httptest.NewRequest(http.MethodPost, "/api/admin/config", strings.NewReader(`{"storeName":"Maison"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	raw, err := os.ReadFile(config.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "env-secret")
	assert.Contains(t, string(raw), "file-secret")
	assert.Contains(t, string(raw), `"adminPasswordHash": "hash"`)
	assert.Equal(t, "env-secret", config.GetConfig().JWTSecret)
}

func TestSaveConfigHandler_Validation(t *testing.T) {
	useTestConfig(t, config.Config{})

	cases := map[string]string{
		"bad number":     `{"whatsAppNumber":"call me"}`,
		"short number":   `{"whatsAppNumber":"9999-0000"}`,
		"missing folder": `{"mediaDir":"/does/not/exist/atelier"}`,
		"missing sizes":  `{"sizesFile":"/does/not/exist/sizes.csv"}`,
		"bad json":       `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SaveConfigHandler()(rec, httptest.NewRequest(http.MethodPost, "/api/admin/config", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHashPasswordCommand(t *testing.T) {
	cmd := newHashPasswordCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"segredo"})
	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, auth.CheckPassword(hash, "segredo"))
}

func TestRootCommand_KeepsLoggerForSync(t *testing.T) {
	old := config.Path()
	t.Cleanup(func() { config.SetPath(old) })

	opts := &rootOptions{}
	cmd := newRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "atelier_config.json"), "hash-password", "segredo"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, opts.logger)
	assert.NotPanics(t, opts.syncLogger)
	assert.NotEmpty(t, strings.TrimSpace(out.String()))
}
