package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PressureTank/PassStore/backend/user"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := Setup(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetUserByUsername_Missing(t *testing.T) {
	s := newTestDB(t)

	u, err := s.GetUserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestPutUser_ThenGet(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.PutUser(ctx, &user.User{Username: "alice", Password: "s3cret"}))

	u, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &user.User{Username: "alice", Password: "s3cret"}, u)
}

func TestPutUser_Overwrites(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.PutUser(ctx, &user.User{Username: "alice", Password: "p1"}))
	require.NoError(t, s.PutUser(ctx, &user.User{Username: "alice", Password: "p2"}))
	require.NoError(t, s.PutUser(ctx, &user.User{Username: "alice", Password: "p2"}))

	u, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "p2", u.Password)

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM salt1 WHERE username = ?", "alice").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSetup_Idempotent(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	first, err := Setup(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, first.PutUser(context.Background(), &user.User{Username: "alice", Password: "s3cret"}))
	first.Close()

	second, err := Setup(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	defer second.Close()

	u, err := second.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", u.Password)
}

func TestGetUserByUsername_CanceledContext(t *testing.T) {
	s := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetUserByUsername(ctx, "alice")
	assert.Error(t, err)
}
