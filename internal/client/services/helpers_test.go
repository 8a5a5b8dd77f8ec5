package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/homes/internal/client/client"
	"github.com/dmitrijs2005/homes/internal/client/storage"
	"github.com/dmitrijs2005/homes/internal/logging"
	"github.com/dmitrijs2005/homes/internal/testserver"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newServer(t *testing.T) (*testserver.Server, *client.HTTPClient) {
	t.Helper()
	srv := testserver.New()
	t.Cleanup(srv.Close)
	c, err := client.NewHTTPClient(srv.BaseURL(), client.WithTimeout(2*time.Second))
	require.NoError(t, err)
	return srv, c
}

func metaSnapshot(t *testing.T, db *storage.DB) map[string][]byte {
	t.Helper()
	m, err := db.Metadata.List(context.Background())
	require.NoError(t, err)
	return m
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("any-key"))
	require.NoError(t, err)
	return tok
}
