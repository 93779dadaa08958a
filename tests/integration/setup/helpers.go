package setup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/kinfeed/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TruncateAllTables empties every table, children first.
func TruncateAllTables(t *testing.T, db *pgxpool.Pool, ctx context.Context) {
	tables := []string{
		"post_reactions",
		"post_comment_likes",
		"post_comments",
		"posts",
		"users",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}
}

func SeedUser(t *testing.T, db *pgxpool.Pool, username string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	query := "INSERT INTO users (id, username, fullname, create_datetime, update_datetime) VALUES ($1, $2, $3, $4, $4)"
	_, err := db.Exec(context.Background(), query, id, username, "Test "+username, time.Now())
	require.NoError(t, err, "failed to seed user %s", username)

	return id
}

func SeedPost(t *testing.T, db *pgxpool.Pool, authorId uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	query := "INSERT INTO posts (id, author_id, content, create_datetime, update_datetime) VALUES ($1, $2, $3, $4, $4)"
	_, err := db.Exec(context.Background(), query, id, authorId, "hello feed", time.Now())
	require.NoError(t, err, "failed to seed post")

	return id
}

func AccessToken(t *testing.T, userId uuid.UUID) string {
	t.Helper()

	token, err := util.GenerateAccessToken(userId, JWTSecretKey, time.Hour)
	require.NoError(t, err, "failed to mint access token")

	return token
}

func CreateJSONRequest(method, url string, jsonBody []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func CreateAuthRequest(method, url string, jsonBody []byte, token string) *http.Request {
	req := CreateJSONRequest(method, url, jsonBody)
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	return req
}

// Call sends an authenticated JSON request and decodes the response body into out when it is not nil.
func Call(t *testing.T, app *fiber.App, method, url string, body interface{}, token string, out interface{}) int {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		require.NoError(t, err)
	}

	resp, err := app.Test(CreateAuthRequest(method, url, payload, token), -1)
	require.NoError(t, err, "%s %s should complete", method, url)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	if out != nil {
		require.NoError(t, sonic.Unmarshal(raw, out), "failed to decode %s", string(raw))
	}

	return resp.StatusCode
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorResponse `json:"error"`
}
