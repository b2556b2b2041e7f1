// Package integration runs end-to-end tests for the Pandorica API against PostgreSQL and
// MySQL. Tests are skipped when the databases are unreachable.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/pandorica/internal/app"
	"github.com/allisson/pandorica/internal/config"
	cryptoDTO "github.com/allisson/pandorica/internal/crypto/http/dto"
	filesDTO "github.com/allisson/pandorica/internal/files/http/dto"
	"github.com/allisson/pandorica/internal/testutil"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	dbDriver  string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body io.Reader,
	contentType string,
) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, ctx.server.URL+path, body)
	require.NoError(t, err, "failed to create request")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := ctx.server.Client().Do(req)
	require.NoError(t, err, "failed to perform request")
	defer func() {
		assert.NoError(t, resp.Body.Close())
	}()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	return resp, respBody
}

// postJSON sends v as a JSON body.
func (ctx *integrationTestContext) postJSON(t *testing.T, path string, v any) (*http.Response, []byte) {
	t.Helper()

	payload, err := json.Marshal(v)
	require.NoError(t, err, "failed to marshal request")
	return ctx.makeRequest(t, http.MethodPost, path, bytes.NewReader(payload), "application/json")
}

// setupIntegrationTest migrates a fresh database and builds the container with an
// in-process keeper vault and an in-memory file store.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	switch dbDriver {
	case "postgres":
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	case "mysql":
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	default:
		t.Fatalf("unsupported database driver: %s", dbDriver)
	}

	cfg := &config.Config{
		DBDriver:              dbDriver,
		DBConnectionString:    dsn,
		DBMaxOpenConnections:  10,
		DBMaxIdleConnections:  5,
		DBConnMaxLifetime:     time.Hour,
		ServerHost:            "localhost",
		ServerPort:            8080,
		ServerShutdownTimeout: 5 * time.Second,
		LogLevel:              "error",
		EncryptionProvider:    "aes-gcm",
		HashingProvider:       "bcrypt",
		KeyDerivationProvider: "hkdf-sha512",
		EnvelopeProvider:      "keeper",
		BcryptCost:            4,
		HKDFInfo:              "pandorica-integration",
		KeeperURLTemplate:     "base64key://",
		MasterKeyName:         "pandorica-integration",
		MasterKeyTTL:          24 * time.Hour,
		FilesystemProvider:    "memory",
	}

	container := app.NewContainer(cfg)

	keyManagement, err := container.KeyManagementUseCase()
	require.NoError(t, err, "failed to get key management use case")
	require.NoError(t, keyManagement.Init(context.Background()), "failed to load master key")

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	t.Logf("integration test setup complete for %s", dbDriver)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    httptest.NewServer(handler),
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}
}

var testCases = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

func TestIntegration_Health_BasicChecks(t *testing.T) {
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, "")
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.JSONEq(t, `{"status":"healthy"}`, string(body))
			})

			t.Run("02_ReadinessCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, "")
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Contains(t, string(body), "ready")
			})
		})
	}
}

func TestIntegration_Values_CompleteFlow(t *testing.T) {
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			plaintext := []byte("card number 4111 1111 1111 1111")
			var encrypted cryptoDTO.EncryptedValueResponse

			t.Run("01_Encrypt", func(t *testing.T) {
				resp, body := ctx.postJSON(t, "/v1/values/encrypt", cryptoDTO.EncryptValueRequest{
					Plaintext: base64.StdEncoding.EncodeToString(plaintext),
				})
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				require.NoError(t, json.Unmarshal(body, &encrypted))
				assert.NotEmpty(t, encrypted.Ciphertext)
				assert.NotEmpty(t, encrypted.Dek)
			})

			t.Run("02_Decrypt", func(t *testing.T) {
				resp, body := ctx.postJSON(t, "/v1/values/decrypt", cryptoDTO.DecryptValueRequest{
					Ciphertext: encrypted.Ciphertext,
					Dek:        encrypted.Dek,
				})
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var decrypted cryptoDTO.DecryptValueResponse
				require.NoError(t, json.Unmarshal(body, &decrypted))
				got, err := base64.StdEncoding.DecodeString(decrypted.Plaintext)
				require.NoError(t, err)
				assert.Equal(t, plaintext, got)
			})

			t.Run("03_DecryptTamperedCiphertext", func(t *testing.T) {
				raw, err := base64.StdEncoding.DecodeString(encrypted.Ciphertext)
				require.NoError(t, err)
				raw[len(raw)-1] ^= 0xff

				resp, _ := ctx.postJSON(t, "/v1/values/decrypt", cryptoDTO.DecryptValueRequest{
					Ciphertext: base64.StdEncoding.EncodeToString(raw),
					Dek:        encrypted.Dek,
				})
				assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			})

			t.Run("04_RejectsInvalidBase64", func(t *testing.T) {
				resp, _ := ctx.postJSON(t, "/v1/values/encrypt", map[string]string{"plaintext": "%%%"})
				assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			})
		})
	}
}

func TestIntegration_Passwords_CompleteFlow(t *testing.T) {
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			var hashed cryptoDTO.HashPasswordResponse

			t.Run("01_Hash", func(t *testing.T) {
				resp, body := ctx.postJSON(t, "/v1/passwords/hash", cryptoDTO.HashPasswordRequest{
					Password: "correct horse battery staple",
				})
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				require.NoError(t, json.Unmarshal(body, &hashed))
				assert.NotEmpty(t, hashed.Hash)
			})

			t.Run("02_VerifyMatch", func(t *testing.T) {
				resp, body := ctx.postJSON(t, "/v1/passwords/verify", cryptoDTO.VerifyPasswordRequest{
					Password: "correct horse battery staple",
					Hash:     hashed.Hash,
				})
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				assert.JSONEq(t, `{"valid":true}`, string(body))
			})

			t.Run("03_VerifyMismatch", func(t *testing.T) {
				resp, body := ctx.postJSON(t, "/v1/passwords/verify", cryptoDTO.VerifyPasswordRequest{
					Password: "wrong",
					Hash:     hashed.Hash,
				})
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				assert.JSONEq(t, `{"valid":false}`, string(body))
			})
		})
	}
}

func TestIntegration_Keys_CompleteFlow(t *testing.T) {
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			var status cryptoDTO.MasterKeyStatusResponse

			t.Run("01_MasterKeyStatus", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/master-key", nil, "")
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				require.NoError(t, json.Unmarshal(body, &status))
				assert.True(t, status.IsActive)
				assert.True(t, status.ExpiresAt.After(status.CreatedAt))
				assert.Equal(t, 1, testutil.CountActiveMasterKeys(t, ctx.db))
			})

			t.Run("02_RotateKeepsUnexpiredKey", func(t *testing.T) {
				resp, body := ctx.postJSON(t, "/v1/master-key/rotate", nil)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var rotated cryptoDTO.MasterKeyStatusResponse
				require.NoError(t, json.Unmarshal(body, &rotated))
				assert.Equal(t, status.ID, rotated.ID)
				assert.Equal(t, 1, testutil.CountActiveMasterKeys(t, ctx.db))
			})

			t.Run("03_DeriveIsDeterministic", func(t *testing.T) {
				req := cryptoDTO.DeriveKeyRequest{
					Input:  base64.StdEncoding.EncodeToString([]byte("input keying material")),
					Salt:   base64.StdEncoding.EncodeToString([]byte("salt")),
					Length: 32,
				}

				var first, second cryptoDTO.DeriveKeyResponse
				resp, body := ctx.postJSON(t, "/v1/keys/derive", req)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				require.NoError(t, json.Unmarshal(body, &first))

				resp, body = ctx.postJSON(t, "/v1/keys/derive", req)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				require.NoError(t, json.Unmarshal(body, &second))

				assert.Equal(t, first.Key, second.Key)
				key, err := base64.StdEncoding.DecodeString(first.Key)
				require.NoError(t, err)
				assert.Len(t, key, 32)
			})
		})
	}
}

func TestIntegration_Files_CompleteFlow(t *testing.T) {
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			// Spans several stream chunks and ends on a partial one.
			content := bytes.Repeat([]byte("pandorica-"), 3500)
			const path = "/v1/files/reports/2026/q1.csv"

			t.Run("01_Upload", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPut, path, bytes.NewReader(content), "text/csv")
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				var file filesDTO.FileResponse
				require.NoError(t, json.Unmarshal(body, &file))
				assert.Equal(t, "reports/2026/q1.csv", file.Name)
				assert.Equal(t, "text/csv", file.ContentType)
				assert.Equal(t, int64(len(content)), file.Size)
			})

			t.Run("02_Head", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodHead, path, nil, "")
				require.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Empty(t, body)
				assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
				assert.Equal(t, int64(len(content)), resp.ContentLength)
			})

			t.Run("03_Download", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, path, nil, "")
				require.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Equal(t, content, body)
			})

			t.Run("04_Delete", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodDelete, path, nil, "")
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)
			})

			t.Run("05_DownloadDeleted", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, path, nil, "")
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			})
		})
	}
}
