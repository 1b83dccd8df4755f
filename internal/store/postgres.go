package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"worktrack/internal/apperr"
)

// DefaultTimeout bounds every store call when the caller sets no timeout
const DefaultTimeout = 8 * time.Second

// pgUniqueViolation is the SQLSTATE raised by unique indexes
const pgUniqueViolation = "23505"

// Options configures the PostgreSQL store
type Options struct {
	DatabaseURL   string
	Timeout       time.Duration
	SlowThreshold time.Duration
	MaxOpenConns  int
	MaxIdleConns  int
}

var _ Store = (*DB)(nil)

// DB is the gorm-backed Store
type DB struct {
	db      *gorm.DB
	timeout time.Duration
}

// Open connects to PostgreSQL
func Open(opts Options) (*DB, error) {
	db, err := gorm.Open(postgres.Open(opts.DatabaseURL), &gorm.Config{
		Logger:         NewGormLogger(opts.SlowThreshold),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return NewDB(db, opts.Timeout), nil
}

// NewDB wraps an existing gorm handle
func NewDB(db *gorm.DB, timeout time.Duration) *DB {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DB{db: db, timeout: timeout}
}

func (s *DB) Employees() EmployeeStore { return &employeeStore{s} }
func (s *DB) Attendance() AttendanceStore { return &attendanceStore{s} }
func (s *DB) Movements() MovementStore { return &movementStore{s} }
func (s *DB) Locations() LocationStore { return &locationStore{s} }
func (s *DB) Offices() OfficeStore { return &officeStore{s} }
func (s *DB) Sessions() SessionStore { return &sessionStore{s} }

// WithinTx runs fn inside a database transaction bounded by the store timeout
func (s *DB) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{db: tx, timeout: s.timeout})
	})
	return translate(err, "record")
}

// Ping checks the database connection
func (s *DB) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperr.Unavailable(err, "database unreachable")
	}
	return nil
}

// Close closes the underlying pool
func (s *DB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// conn returns a gorm session bound to a context carrying the store timeout
func (s *DB) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := s.withTimeout(ctx)
	return s.db.WithContext(ctx), cancel
}

func (s *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= s.timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// translate maps driver errors onto apperr kinds
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s not found", entity)
	case errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err):
		return apperr.Wrap(apperr.KindConflict, err, entity+" already exists")
	case isUnavailable(err):
		log.Printf("[Store] %s unavailable: %v", entity, err)
		return apperr.Unavailable(err, "store unavailable, retry later")
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// offsetLimit applies pagination; limit <= 0 returns everything
func offsetLimit(q *gorm.DB, page, limit int) *gorm.DB {
	if limit <= 0 {
		return q
	}
	if page < 1 {
		page = 1
	}
	return q.Offset((page - 1) * limit).Limit(limit)
}
