package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"worktrack/internal/apperr"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"not found", gorm.ErrRecordNotFound, apperr.KindNotFound},
		{"wrapped not found", fmt.Errorf("query: %w", gorm.ErrRecordNotFound), apperr.KindNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, apperr.KindConflict},
		{"unique violation", &pgconn.PgError{Code: "23505"}, apperr.KindConflict},
		{"deadline", context.DeadlineExceeded, apperr.KindUnavailable},
		{"canceled", context.Canceled, apperr.KindUnavailable},
		{"other", errors.New("syntax error"), apperr.KindInternal},
		{"already typed", apperr.InvalidState("closed"), apperr.KindInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apperr.KindOf(translate(tt.err, "record"))
			if got != tt.want {
				t.Errorf("translate(%v) kind = %s, want %s", tt.err, got, tt.want)
			}
		})
	}

	if translate(nil, "record") != nil {
		t.Error("translate(nil) should be nil")
	}
}

func TestUnavailableIsRetryable(t *testing.T) {
	err := translate(context.DeadlineExceeded, "attendance record")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	if !appErr.Retryable() {
		t.Error("unavailable errors should be retryable")
	}
}

func TestWithTimeoutKeepsShorterDeadline(t *testing.T) {
	s := NewDB(nil, time.Minute)

	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ctx, cancel2 := s.withTimeout(parent)
	defer cancel2()

	want, _ := parent.Deadline()
	got, ok := ctx.Deadline()
	if !ok || !got.Equal(want) {
		t.Errorf("deadline = %v, want %v", got, want)
	}

	ctx3, cancel3 := s.withTimeout(context.Background())
	defer cancel3()
	if _, ok := ctx3.Deadline(); !ok {
		t.Error("expected store timeout to set a deadline")
	}
}
