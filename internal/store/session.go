package store

import (
	"context"

	"worktrack/internal/model"
)

type sessionStore struct {
	s *DB
}

func (r *sessionStore) Create(ctx context.Context, sess *model.Session) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	return translate(db.Create(sess).Error, "session")
}

func (r *sessionStore) FindByID(ctx context.Context, id string) (*model.Session, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var sess model.Session
	if err := db.Where("id = ?", id).First(&sess).Error; err != nil {
		return nil, translate(err, "session")
	}
	return &sess, nil
}

func (r *sessionStore) Delete(ctx context.Context, id string) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	return translate(db.Where("id = ?", id).Delete(&model.Session{}).Error, "session")
}

func (r *sessionStore) DeleteByEmployee(ctx context.Context, employeeID string) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	return translate(db.Where("employee_id = ?", employeeID).Delete(&model.Session{}).Error, "sessions")
}
