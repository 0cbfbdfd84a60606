package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/amonks/taskboard/task"
)

var (
	// ErrNotFound indicates that no row matched.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken indicates a registration for an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken indicates a registration for a username that already exists.
	ErrUsernameTaken = errors.New("username already taken")
)

type dialect struct {
	driver     string
	primaryKey string
	timestamp  string
}

var (
	sqliteDialect   = dialect{driver: "sqlite3", primaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT", timestamp: "TIMESTAMP"}
	postgresDialect = dialect{driver: "postgres", primaryKey: "BIGSERIAL PRIMARY KEY", timestamp: "TIMESTAMPTZ"}
)

// Store persists users and tasks in a SQL database.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// storedUser is a user row including its password hash.
type storedUser struct {
	task.User
	PasswordHash string
}

// OpenStore opens the database named by databaseURL and creates the schema.
//
// postgres:// and postgresql:// URLs use lib/pq. sqlite://path, sqlite3://path
// and file: URLs use sqlite; sqlite://:memory: opens a private in-memory
// database.
func OpenStore(ctx context.Context, databaseURL string) (*Store, error) {
	d, dsn, err := parseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.driver, err)
	}
	if d.driver == sqliteDialect.driver {
		// Each sqlite connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	}
	store := &Store{db: db, dialect: d}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func parseDatabaseURL(databaseURL string) (dialect, string, error) {
	trimmed := strings.TrimSpace(databaseURL)
	switch {
	case trimmed == "":
		return dialect{}, "", fmt.Errorf("database url is required")
	case strings.HasPrefix(trimmed, "postgres://"), strings.HasPrefix(trimmed, "postgresql://"):
		return postgresDialect, trimmed, nil
	case strings.HasPrefix(trimmed, "sqlite://"):
		return sqliteDialect, sqlitePath(strings.TrimPrefix(trimmed, "sqlite://")), nil
	case strings.HasPrefix(trimmed, "sqlite3://"):
		return sqliteDialect, sqlitePath(strings.TrimPrefix(trimmed, "sqlite3://")), nil
	case strings.HasPrefix(trimmed, "file:"):
		return sqliteDialect, trimmed, nil
	default:
		return dialect{}, "", fmt.Errorf("unsupported database url %q", databaseURL)
	}
}

func sqlitePath(path string) string {
	if path == "" || path == ":memory:" {
		return ":memory:"
	}
	if strings.Contains(path, "?") {
		return "file:" + path + "&_foreign_keys=on"
	}
	return "file:" + path + "?_foreign_keys=on"
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
	id %s,
	username VARCHAR(50) NOT NULL UNIQUE,
	email VARCHAR(100) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	created_at %s NOT NULL
)`, s.dialect.primaryKey, s.dialect.timestamp),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tasks (
	id %s,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title VARCHAR(100) NOT NULL,
	description TEXT,
	status VARCHAR(20) NOT NULL DEFAULT 'todo',
	created_at %s NOT NULL,
	updated_at %s NOT NULL
)`, s.dialect.primaryKey, s.dialect.timestamp, s.dialect.timestamp),
		`CREATE INDEX IF NOT EXISTS tasks_user_id ON tasks (user_id)`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// CreateUser inserts a user with an already hashed password.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string, now time.Time) (task.User, error) {
	if _, err := s.userByEmail(ctx, email); err == nil {
		return task.User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return task.User{}, err
	}

	user := task.User{Username: username, Email: email}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		username, email, passwordHash, now.UTC(),
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return task.User{}, ErrUsernameTaken
		}
		return task.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *Store) userByEmail(ctx context.Context, email string) (storedUser, error) {
	var user storedUser
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash FROM users WHERE email = $1`, email,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return storedUser{}, ErrNotFound
	}
	if err != nil {
		return storedUser{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

// UserByID returns the user with the given id.
func (s *Store) UserByID(ctx context.Context, id int64) (task.User, error) {
	var user task.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Username, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return task.User{}, ErrNotFound
	}
	if err != nil {
		return task.User{}, fmt.Errorf("find user %d: %w", id, err)
	}
	return user, nil
}

// ListTasks returns the tasks owned by userID in insertion order.
func (s *Store) ListTasks(ctx context.Context, userID int64) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, status, created_at, updated_at FROM tasks WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		item, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask inserts a task for record.UserID.
func (s *Store) CreateTask(ctx context.Context, record task.Record, now time.Time) (task.Task, error) {
	now = now.UTC()
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, title, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		record.UserID, record.Title, record.Description, string(record.Status), now, now,
	).Scan(&id)
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.taskByID(ctx, id)
}

// UpdateTask replaces title, description and status of task id when it is
// owned by record.UserID.
func (s *Store) UpdateTask(ctx context.Context, id int64, record task.Record, now time.Time) (task.Task, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = $1, description = $2, status = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6`,
		record.Title, record.Description, string(record.Status), now.UTC(), id, record.UserID,
	)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return task.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	if affected == 0 {
		return task.Task{}, ErrNotFound
	}
	return s.taskByID(ctx, id)
}

func (s *Store) taskByID(ctx context.Context, id int64) (task.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, status, created_at, updated_at FROM tasks WHERE id = $1`, id,
	)
	item, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("find task %d: %w", id, err)
	}
	return item, nil
}

// DeleteTask deletes task id when it is owned by userID.
func (s *Store) DeleteTask(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (task.Task, error) {
	var item task.Task
	var description sql.NullString
	var status string
	if err := row.Scan(&item.ID, &item.Title, &description, &status, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return task.Task{}, err
	}
	item.Description = description.String
	item.Status = task.Status(status)
	return item, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
