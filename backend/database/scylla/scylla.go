package scylla

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"github.com/PressureTank/PassStore/backend/user"
)

const (
	Keyspace = "ks"
	Table    = "salt1"
)

const (
	createKeyspaceStmt = `CREATE KEYSPACE IF NOT EXISTS ` + Keyspace + ` WITH REPLICATION = {'class' : 'SimpleStrategy', 'replication_factor' : 1}`
	createTableStmt    = `CREATE TABLE IF NOT EXISTS ` + Keyspace + `.` + Table + ` (username ascii PRIMARY KEY, password ascii)`

	getUserStmt = `SELECT username, password FROM ` + Keyspace + `.` + Table + ` WHERE username = ? LIMIT 1`
	putUserStmt = `INSERT INTO ` + Keyspace + `.` + Table + ` (username, password) VALUES (?, ?)`

	// Only ever true for an existing row, so a batch guarded by it on a
	// fresh key never applies.
	upsertGuardStmt = `UPDATE ` + Keyspace + `.` + Table + ` SET password = ? WHERE username = ? IF EXISTS`
)

// ScyllaDB holds the shared session and the two statements executed by the
// user routes. It is safe for concurrent use.
type ScyllaDB struct {
	session *gocql.Session
	logger  *zap.Logger
	getUser string
	putUser string
}

// Connect opens a session against the cluster reachable at contactPoint
// (host:port).
func Connect(contactPoint string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(contactPoint)
	cluster.Compressor = LZ4Compressor{}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", contactPoint, err)
	}
	return session, nil
}

// Setup creates the keyspace and table if needed and returns the statement
// registry bound to session.
func Setup(ctx context.Context, session *gocql.Session, logger *zap.Logger) (*ScyllaDB, error) {
	for _, stmt := range []string{createKeyspaceStmt, createTableStmt} {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return nil, fmt.Errorf("run schema statement %q: %w", stmt, err)
		}
	}

	// Agreement is needed before the new table shows up in metadata.
	if err := session.AwaitSchemaAgreement(ctx); err != nil {
		return nil, fmt.Errorf("await schema agreement: %w", err)
	}

	ksMeta, err := session.KeyspaceMetadata(Keyspace)
	if err != nil {
		return nil, fmt.Errorf("read keyspace metadata: %w", err)
	}
	if err := checkTable(ksMeta); err != nil {
		return nil, err
	}

	s := &ScyllaDB{
		session: session,
		logger:  logger,
		getUser: getUserStmt,
		putUser: putUserStmt,
	}
	if err := s.prepare(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// prepare executes both statements once so the driver prepares and caches
// them before any traffic arrives. Neither execution changes stored data:
// the lookup reads a fresh key and the upsert runs inside a conditional
// batch that cannot apply.
func (s *ScyllaDB) prepare(ctx context.Context) error {
	key := "_prepare-" + gocql.TimeUUID().String()

	iter := s.session.Query(s.getUser, key).WithContext(ctx).Iter()
	if err := iter.Close(); err != nil {
		return fmt.Errorf("prepare lookup statement: %w", err)
	}

	b := upsertWarmupBatch(s.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx), s.putUser, key)
	applied, iter, err := s.session.ExecuteBatchCAS(b)
	if err != nil {
		return fmt.Errorf("prepare upsert statement: %w", err)
	}
	if err := iter.Close(); err != nil {
		return fmt.Errorf("prepare upsert statement: %w", err)
	}
	if applied {
		return fmt.Errorf("prepare upsert statement: warm-up batch for %q applied", key)
	}
	return nil
}

// upsertWarmupBatch pairs the upsert with a guard on the same partition so
// the batch is rejected when key does not exist.
func upsertWarmupBatch(b *gocql.Batch, putUser, key string) *gocql.Batch {
	b.Query(putUser, key, "")
	b.Query(upsertGuardStmt, "", key)
	return b
}

func checkTable(ksMeta *gocql.KeyspaceMetadata) error {
	table, ok := ksMeta.Tables[Table]
	if !ok {
		return fmt.Errorf("table %s.%s missing after setup", Keyspace, Table)
	}
	for _, col := range []string{"username", "password"} {
		if _, ok := table.Columns[col]; !ok {
			return fmt.Errorf("table %s.%s has no column %q", Keyspace, Table, col)
		}
	}
	return nil
}

// rowIter is the part of *gocql.Iter a lookup reads.
type rowIter interface {
	Columns() []gocql.ColumnInfo
	Scan(dest ...interface{}) bool
	Close() error
}

func (s *ScyllaDB) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	u, err := readUser(s.session.Query(s.getUser, username).WithContext(ctx).Iter())
	if err != nil && !errors.Is(err, user.ErrNoResultSet) {
		s.logger.Error("Error fetching user from database", zap.Error(err))
	}
	return u, err
}

// readUser decodes at most one row. It returns nil, nil when the row set is
// empty and user.ErrNoResultSet when the response was not a row set.
func readUser(iter rowIter) (*user.User, error) {
	// A response without column metadata is not a row set.
	if len(iter.Columns()) == 0 {
		if err := iter.Close(); err != nil {
			return nil, err
		}
		return nil, user.ErrNoResultSet
	}

	var u user.User
	found := iter.Scan(&u.Username, &u.Password)
	if err := iter.Close(); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

func (s *ScyllaDB) PutUser(ctx context.Context, u *user.User) error {
	err := s.session.Query(s.putUser, u.Username, u.Password).WithContext(ctx).Exec()
	if err != nil {
		s.logger.Error("Error inserting user into database", zap.Error(err))
		return err
	}
	return nil
}
