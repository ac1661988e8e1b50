package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/PressureTank/PassStore/backend/user"
)

const createTableStmt = `
CREATE TABLE IF NOT EXISTS salt1 (
	username TEXT PRIMARY KEY,
	password TEXT NOT NULL
)`

// SQLiteDB is a file-backed stand-in for the cluster with the same lookup
// and upsert semantics.
type SQLiteDB struct {
	db      *sql.DB
	logger  *zap.Logger
	getUser *sql.Stmt
	putUser *sql.Stmt
}

// Open opens the database at path. Use ":memory:" for a throwaway store.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Setup creates the table if needed and prepares both statements.
func Setup(ctx context.Context, db *sql.DB, logger *zap.Logger) (*SQLiteDB, error) {
	if _, err := db.ExecContext(ctx, createTableStmt); err != nil {
		return nil, fmt.Errorf("create table salt1: %w", err)
	}

	getUser, err := db.PrepareContext(ctx, "SELECT username, password FROM salt1 WHERE username = ? LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("prepare lookup statement: %w", err)
	}
	putUser, err := db.PrepareContext(ctx, "INSERT OR REPLACE INTO salt1 (username, password) VALUES (?, ?)")
	if err != nil {
		getUser.Close()
		return nil, fmt.Errorf("prepare upsert statement: %w", err)
	}

	return &SQLiteDB{
		db:      db,
		logger:  logger,
		getUser: getUser,
		putUser: putUser,
	}, nil
}

// Close releases the prepared statements. The *sql.DB stays open.
func (s *SQLiteDB) Close() error {
	s.getUser.Close()
	return s.putUser.Close()
}

func (s *SQLiteDB) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	row := s.getUser.QueryRowContext(ctx, username)
	var u user.User
	err := row.Scan(&u.Username, &u.Password)
	if err == sql.ErrNoRows {
		// User not found
		return nil, nil
	} else if err != nil {
		s.logger.Error("Error fetching user from database", zap.Error(err))
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteDB) PutUser(ctx context.Context, u *user.User) error {
	_, err := s.putUser.ExecContext(ctx, u.Username, u.Password)
	if err != nil {
		s.logger.Error("Error inserting user into database", zap.Error(err))
		return err
	}
	return nil
}
