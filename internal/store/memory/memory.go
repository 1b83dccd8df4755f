// Package memory is an in-process Store used for local development and tests.
// Transactions are serialized; a failed transaction restores the snapshot taken
// when it began.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

type database struct {
	txMu sync.Mutex
	mu   sync.Mutex

	employees  map[string]model.Employee
	sessions   map[string]model.Session
	attendance map[string]model.AttendanceRecord
	movements  map[string]model.MovementRecord
	locations  map[string][]model.LocationSample // by employee, insertion order
	offices    map[uint]model.OfficeLocation
	officeSeq  uint
}

func newDatabase() *database {
	return &database{
		employees:  make(map[string]model.Employee),
		sessions:   make(map[string]model.Session),
		attendance: make(map[string]model.AttendanceRecord),
		movements:  make(map[string]model.MovementRecord),
		locations:  make(map[string][]model.LocationSample),
		offices:    make(map[uint]model.OfficeLocation),
	}
}

// snapshot must be called with mu held
func (d *database) snapshot() *database {
	c := newDatabase()
	for k, v := range d.employees {
		c.employees[k] = v
	}
	for k, v := range d.sessions {
		c.sessions[k] = v
	}
	for k, v := range d.attendance {
		c.attendance[k] = v
	}
	for k, v := range d.movements {
		c.movements[k] = v
	}
	for k, v := range d.locations {
		c.locations[k] = append([]model.LocationSample(nil), v...)
	}
	for k, v := range d.offices {
		c.offices[k] = v
	}
	c.officeSeq = d.officeSeq
	return c
}

// restore must be called with mu held
func (d *database) restore(c *database) {
	d.employees = c.employees
	d.sessions = c.sessions
	d.attendance = c.attendance
	d.movements = c.movements
	d.locations = c.locations
	d.offices = c.offices
	d.officeSeq = c.officeSeq
}

var _ store.Store = (*Store)(nil)

// Store implements store.Store in memory
type Store struct {
	db   *database
	inTx bool
}

// New returns an empty store
func New() *Store {
	return &Store{db: newDatabase()}
}

// lock serializes access. Calls made outside a transaction also wait for any
// running transaction to finish.
func (s *Store) lock() func() {
	if !s.inTx {
		s.db.txMu.Lock()
	}
	s.db.mu.Lock()
	return func() {
		s.db.mu.Unlock()
		if !s.inTx {
			s.db.txMu.Unlock()
		}
	}
}

func (s *Store) Employees() store.EmployeeStore { return &employees{s} }
func (s *Store) Attendance() store.AttendanceStore { return &attendance{s} }
func (s *Store) Movements() store.MovementStore { return &movements{s} }
func (s *Store) Locations() store.LocationStore { return &locations{s} }
func (s *Store) Offices() store.OfficeStore { return &offices{s} }
func (s *Store) Sessions() store.SessionStore { return &sessions{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable(err, "store unavailable, retry later")
	}

	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	s.db.mu.Lock()
	snap := s.db.snapshot()
	s.db.mu.Unlock()

	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.mu.Lock()
		s.db.restore(snap)
		s.db.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

// page returns the bounds of the requested page; limit <= 0 returns everything
func page(n, page, limit int) (int, int) {
	if limit <= 0 {
		return 0, n
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start > n {
		start = n
	}
	end := start + limit
	if end > n {
		end = n
	}
	return start, end
}

type employees struct{ s *Store }

func (r *employees) Create(ctx context.Context, e *model.Employee) error {
	defer r.s.lock()()

	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	if _, ok := r.s.db.employees[e.ID]; ok {
		return apperr.Conflict("employee already exists")
	}
	for _, existing := range r.s.db.employees {
		if existing.Email == e.Email {
			return apperr.Conflict("employee already exists")
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	e.UpdatedAt = e.CreatedAt
	r.s.db.employees[e.ID] = *e
	return nil
}

func (r *employees) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	defer r.s.lock()()

	e, ok := r.s.db.employees[id]
	if !ok {
		return nil, apperr.NotFound("employee not found")
	}
	return &e, nil
}

func (r *employees) FindByEmail(ctx context.Context, email string) (*model.Employee, error) {
	defer r.s.lock()()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range r.s.db.employees {
		if e.Email == email {
			return &e, nil
		}
	}
	return nil, apperr.NotFound("employee not found")
}

func (r *employees) List(ctx context.Context, filter store.EmployeeFilter) ([]model.Employee, int64, error) {
	defer r.s.lock()()

	var out []model.Employee
	for _, e := range r.s.db.employees {
		if filter.Department != "" && e.Department != filter.Department {
			continue
		}
		if filter.Active != nil && e.IsActive != *filter.Active {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	start, end := page(len(out), filter.Page, filter.Limit)
	return out[start:end], int64(len(out)), nil
}

func (r *employees) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) error {
	return r.modify(id, func(e *model.Employee) {
		if update.Name != nil {
			e.Name = *update.Name
		}
		if update.Phone != nil {
			e.Phone = *update.Phone
		}
		if update.Department != nil {
			e.Department = *update.Department
		}
		if update.Position != nil {
			e.Position = *update.Position
		}
		if update.Address != nil {
			e.Address = *update.Address
		}
		if update.EmergencyContact != nil {
			e.EmergencyContact = *update.EmergencyContact
		}
	})
}

func (r *employees) SetActive(ctx context.Context, id string, active bool) error {
	return r.modify(id, func(e *model.Employee) { e.IsActive = active })
}

func (r *employees) SetRole(ctx context.Context, id, role string) error {
	return r.modify(id, func(e *model.Employee) { e.Role = role })
}

func (r *employees) SetPasswordHash(ctx context.Context, id, hash string) error {
	return r.modify(id, func(e *model.Employee) { e.PasswordHash = hash })
}

func (r *employees) TouchLogin(ctx context.Context, id string, at time.Time) error {
	defer r.s.lock()()

	e, ok := r.s.db.employees[id]
	if !ok {
		return apperr.NotFound("employee not found")
	}
	e.LastLoginAt = &at
	r.s.db.employees[id] = e
	return nil
}

// modify applies fn to the stored row under the lock
func (r *employees) modify(id string, fn func(e *model.Employee)) error {
	defer r.s.lock()()

	e, ok := r.s.db.employees[id]
	if !ok {
		return apperr.NotFound("employee not found")
	}
	fn(&e)
	e.UpdatedAt = now()
	r.s.db.employees[id] = e
	return nil
}

type sessions struct{ s *Store }

func (r *sessions) Create(ctx context.Context, sess *model.Session) error {
	defer r.s.lock()()

	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now()
	}
	r.s.db.sessions[sess.ID] = *sess
	return nil
}

func (r *sessions) FindByID(ctx context.Context, id string) (*model.Session, error) {
	defer r.s.lock()()

	sess, ok := r.s.db.sessions[id]
	if !ok {
		return nil, apperr.NotFound("session not found")
	}
	return &sess, nil
}

func (r *sessions) Delete(ctx context.Context, id string) error {
	defer r.s.lock()()

	delete(r.s.db.sessions, id)
	return nil
}

func (r *sessions) DeleteByEmployee(ctx context.Context, employeeID string) error {
	defer r.s.lock()()

	for id, sess := range r.s.db.sessions {
		if sess.EmployeeID == employeeID {
			delete(r.s.db.sessions, id)
		}
	}
	return nil
}

type attendance struct{ s *Store }

func (r *attendance) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	defer r.s.lock()()

	if _, ok := r.s.db.attendance[rec.ID]; ok {
		return apperr.Conflict("attendance record already exists")
	}
	if rec.Status == model.AttendanceActive {
		for _, existing := range r.s.db.attendance {
			if existing.EmployeeID == rec.EmployeeID && existing.Status == model.AttendanceActive {
				return apperr.Conflict("employee %s already has an active attendance session", rec.EmployeeID)
			}
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now()
	}
	rec.UpdatedAt = rec.CreatedAt
	r.s.db.attendance[rec.ID] = *rec
	return nil
}

func (r *attendance) FindByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	defer r.s.lock()()

	rec, ok := r.s.db.attendance[id]
	if !ok {
		return nil, apperr.NotFound("attendance record not found")
	}
	return &rec, nil
}

func (r *attendance) FindActiveByEmployee(ctx context.Context, employeeID string) (*model.AttendanceRecord, error) {
	defer r.s.lock()()

	for _, rec := range r.s.db.attendance {
		if rec.EmployeeID == employeeID && rec.Status == model.AttendanceActive {
			return &rec, nil
		}
	}
	return nil, apperr.NotFound("active attendance session not found")
}

func (r *attendance) Update(ctx context.Context, rec *model.AttendanceRecord, from model.AttendanceStatus) error {
	defer r.s.lock()()

	current, ok := r.s.db.attendance[rec.ID]
	if !ok {
		return apperr.NotFound("attendance record not found")
	}
	if current.Status != from {
		return apperr.InvalidState("attendance record %s is %s, not %s", rec.ID, current.Status, from)
	}
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = now()
	r.s.db.attendance[rec.ID] = *rec
	return nil
}

func (r *attendance) List(ctx context.Context, filter model.AttendanceFilter) ([]model.AttendanceRecord, int64, error) {
	defer r.s.lock()()

	var out []model.AttendanceRecord
	for _, rec := range r.s.db.attendance {
		switch {
		case filter.EmployeeID != "" && rec.EmployeeID != filter.EmployeeID,
			filter.Department != "" && rec.Department != filter.Department,
			filter.Office != "" && rec.Office != filter.Office,
			filter.Status != "" && rec.Status != filter.Status,
			filter.StartDate != "" && rec.Date < filter.StartDate,
			filter.EndDate != "" && rec.Date > filter.EndDate:
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ClockInTime.After(out[j].ClockInTime)
	})
	start, end := page(len(out), filter.Page, filter.Limit)
	return out[start:end], int64(len(out)), nil
}

type movements struct{ s *Store }

func (r *movements) Create(ctx context.Context, rec *model.MovementRecord) error {
	defer r.s.lock()()

	if _, ok := r.s.db.movements[rec.ID]; ok {
		return apperr.Conflict("movement record already exists")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now()
	}
	rec.UpdatedAt = rec.CreatedAt
	r.s.db.movements[rec.ID] = *rec
	return nil
}

func (r *movements) FindByID(ctx context.Context, id string) (*model.MovementRecord, error) {
	defer r.s.lock()()

	rec, ok := r.s.db.movements[id]
	if !ok {
		return nil, apperr.NotFound("movement record not found")
	}
	return &rec, nil
}

func (r *movements) FindActive(ctx context.Context, employeeID string) ([]model.MovementRecord, error) {
	defer r.s.lock()()

	var out []model.MovementRecord
	for _, rec := range r.s.db.movements {
		if rec.EmployeeID == employeeID && rec.Status == model.MovementActive {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *movements) Update(ctx context.Context, rec *model.MovementRecord, from model.MovementStatus) error {
	defer r.s.lock()()

	current, ok := r.s.db.movements[rec.ID]
	if !ok {
		return apperr.NotFound("movement record not found")
	}
	if current.Status != from {
		return apperr.InvalidState("movement %s is already %s", rec.ID, current.Status)
	}
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = now()
	r.s.db.movements[rec.ID] = *rec
	return nil
}

func (r *movements) List(ctx context.Context, filter model.MovementFilter) ([]model.MovementRecord, int64, error) {
	defer r.s.lock()()

	var out []model.MovementRecord
	for _, rec := range r.s.db.movements {
		switch {
		case filter.EmployeeID != "" && rec.EmployeeID != filter.EmployeeID,
			filter.Status != "" && rec.Status != filter.Status,
			filter.From != nil && rec.StartTime.Before(*filter.From),
			filter.To != nil && rec.StartTime.After(*filter.To):
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	start, end := page(len(out), filter.Page, filter.Limit)
	return out[start:end], int64(len(out)), nil
}

func (r *movements) CountActive(ctx context.Context) (int64, error) {
	defer r.s.lock()()

	var n int64
	for _, rec := range r.s.db.movements {
		if rec.Status == model.MovementActive {
			n++
		}
	}
	return n, nil
}

type locations struct{ s *Store }

func (r *locations) Append(ctx context.Context, sample *model.LocationSample) error {
	defer r.s.lock()()

	if sample.CreatedAt.IsZero() {
		sample.CreatedAt = now()
	}
	r.s.db.locations[sample.EmployeeID] = append(r.s.db.locations[sample.EmployeeID], *sample)
	return nil
}

// newestFirst returns a copy of the employee's samples, newest first.
// Must be called with the lock held.
func (r *locations) newestFirst(employeeID string) []model.LocationSample {
	samples := append([]model.LocationSample(nil), r.s.db.locations[employeeID]...)
	// stable keeps later appends ahead of earlier ones on equal timestamps
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Timestamp.After(samples[j].Timestamp) })
	return samples
}

func (r *locations) FindLatest(ctx context.Context, employeeID string) (*model.LocationSample, error) {
	defer r.s.lock()()

	samples := r.newestFirst(employeeID)
	if len(samples) == 0 {
		return nil, apperr.NotFound("location not found")
	}
	return &samples[0], nil
}

func (r *locations) FindBetween(ctx context.Context, employeeID string, from, to time.Time) ([]model.LocationSample, error) {
	defer r.s.lock()()

	var out []model.LocationSample
	for _, sample := range r.s.db.locations[employeeID] {
		if sample.Timestamp.Before(from) || sample.Timestamp.After(to) {
			continue
		}
		out = append(out, sample)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *locations) List(ctx context.Context, filter model.LocationFilter) ([]model.LocationSample, int64, error) {
	defer r.s.lock()()

	var out []model.LocationSample
	for _, sample := range r.newestFirst(filter.EmployeeID) {
		if filter.From != nil && sample.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && sample.Timestamp.After(*filter.To) {
			continue
		}
		out = append(out, sample)
	}
	start, end := page(len(out), filter.Page, filter.Limit)
	return out[start:end], int64(len(out)), nil
}

// PruneOldest keeps the keep most recently appended samples
func (r *locations) PruneOldest(ctx context.Context, employeeID string, keep int) (int64, error) {
	defer r.s.lock()()

	samples := r.s.db.locations[employeeID]
	if keep <= 0 || len(samples) <= keep {
		return 0, nil
	}
	removed := len(samples) - keep
	r.s.db.locations[employeeID] = append([]model.LocationSample(nil), samples[removed:]...)
	return int64(removed), nil
}

type offices struct{ s *Store }

func (r *offices) Create(ctx context.Context, o *model.OfficeLocation) error {
	defer r.s.lock()()

	for _, existing := range r.s.db.offices {
		if existing.Name == o.Name {
			return apperr.Conflict("office %s already exists", o.Name)
		}
	}
	r.s.db.officeSeq++
	o.ID = r.s.db.officeSeq
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now()
	}
	o.UpdatedAt = o.CreatedAt
	r.s.db.offices[o.ID] = *o
	return nil
}

func (r *offices) FindByID(ctx context.Context, id uint) (*model.OfficeLocation, error) {
	defer r.s.lock()()

	o, ok := r.s.db.offices[id]
	if !ok {
		return nil, apperr.NotFound("office not found")
	}
	return &o, nil
}

func (r *offices) List(ctx context.Context, activeOnly bool) ([]model.OfficeLocation, error) {
	defer r.s.lock()()

	var out []model.OfficeLocation
	for _, o := range r.s.db.offices {
		if activeOnly && !o.IsActive {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *offices) Update(ctx context.Context, o *model.OfficeLocation) error {
	defer r.s.lock()()

	current, ok := r.s.db.offices[o.ID]
	if !ok {
		return apperr.NotFound("office not found")
	}
	for id, existing := range r.s.db.offices {
		if id != o.ID && existing.Name == o.Name {
			return apperr.Conflict("office %s already exists", o.Name)
		}
	}
	o.CreatedAt = current.CreatedAt
	o.UpdatedAt = now()
	r.s.db.offices[o.ID] = *o
	return nil
}

func (r *offices) Count(ctx context.Context) (int64, error) {
	defer r.s.lock()()

	return int64(len(r.s.db.offices)), nil
}
