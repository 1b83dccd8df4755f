package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"worktrack/internal/apperr"
	"worktrack/internal/events"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

const (
	latestLocationKey = "wt:location:latest:"
	latestLocationTTL = 24 * time.Hour
)

// LocationInput is one GPS sample posted by a device
type LocationInput struct {
	EmployeeID     string
	Coordinates    model.Coordinates
	Accuracy       *float64
	Heading        *float64
	Speed          *float64
	BatteryLevel   *int
	IsMockLocation bool
	Address        string
	Timestamp      *time.Time
}

// LocationService records and serves employee location samples
type LocationService struct {
	store      store.Store
	redis      *redis.Client
	events     events.Publisher
	maxSamples int
	now        func() time.Time
}

// NewLocationService creates a new location service; redisClient and bus may be nil
func NewLocationService(st store.Store, redisClient *redis.Client, bus events.Publisher, maxSamples int) *LocationService {
	return &LocationService{
		store:      st,
		redis:      redisClient,
		events:     bus,
		maxSamples: maxSamples,
		now:        time.Now,
	}
}

// Record appends a sample, linked to the open attendance session if any, and prunes old samples
func (s *LocationService) Record(ctx context.Context, in LocationInput) (*model.LocationSample, error) {
	if err := validateLocation(in); err != nil {
		return nil, err
	}
	if _, err := s.store.Employees().FindByID(ctx, in.EmployeeID); err != nil {
		return nil, err
	}

	sample := &model.LocationSample{
		ID:             newID(),
		EmployeeID:     in.EmployeeID,
		Timestamp:      eventTime(in.Timestamp, s.now),
		Latitude:       in.Coordinates.Latitude,
		Longitude:      in.Coordinates.Longitude,
		Accuracy:       in.Accuracy,
		Heading:        in.Heading,
		Speed:          in.Speed,
		BatteryLevel:   in.BatteryLevel,
		IsMockLocation: in.IsMockLocation,
		Address:        in.Address,
	}

	var latest *model.LocationSample
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		active, err := tx.Attendance().FindActiveByEmployee(ctx, in.EmployeeID)
		switch {
		case err == nil:
			sample.AttendanceID = stringPtr(active.ID)
		case !apperr.Is(err, apperr.KindNotFound):
			return err
		}

		if err := appendSample(ctx, tx, sample, s.maxSamples); err != nil {
			return err
		}
		latest, err = tx.Locations().FindLatest(ctx, in.EmployeeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cacheLatest(ctx, latest)
	if in.IsMockLocation {
		log.Printf("[Location] Mock location reported by employee %s", in.EmployeeID)
	}
	publish(s.events, "Location", events.LocationSubject(in.EmployeeID), model.LocationEvent{
		EmployeeID:   sample.EmployeeID,
		AttendanceID: sample.AttendanceID,
		Latitude:     sample.Latitude,
		Longitude:    sample.Longitude,
		Address:      sample.Address,
		Timestamp:    sample.Timestamp.Unix(),
	})
	return sample, nil
}

// Current returns the newest sample, from redis when cached
func (s *LocationService) Current(ctx context.Context, employeeID string) (*model.LocationSample, error) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, latestLocationKey+employeeID).Bytes()
		if err == nil {
			var sample model.LocationSample
			if err := json.Unmarshal(data, &sample); err == nil {
				return &sample, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("[Location] Redis read failed, using store: %v", err)
		}
	}

	sample, err := s.store.Locations().FindLatest(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	s.cacheLatest(ctx, sample)
	return sample, nil
}

// History lists samples newest first
func (s *LocationService) History(ctx context.Context, filter model.LocationFilter) ([]model.LocationSample, model.Pagination, error) {
	filter.Page, filter.Limit = model.NormalizePage(filter.Page, filter.Limit, 50, 500)
	samples, total, err := s.store.Locations().List(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return samples, model.NewPagination(filter.Page, filter.Limit, total), nil
}

func (s *LocationService) cacheLatest(ctx context.Context, sample *model.LocationSample) {
	if s.redis == nil || sample == nil {
		return
	}
	data, err := json.Marshal(sample)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, latestLocationKey+sample.EmployeeID, data, latestLocationTTL).Err(); err != nil {
		log.Printf("[Location] Failed to cache latest location: %v", err)
	}
}

func validateLocation(in LocationInput) error {
	if err := validateCoordinates(in.Coordinates); err != nil {
		return err
	}
	if in.Accuracy != nil && *in.Accuracy < 0 {
		return apperr.Validation("accuracy must not be negative")
	}
	if in.Heading != nil && (*in.Heading < 0 || *in.Heading > 360) {
		return apperr.Validation("heading must be within [0, 360]")
	}
	if in.Speed != nil && *in.Speed < 0 {
		return apperr.Validation("speed must not be negative")
	}
	if in.BatteryLevel != nil && (*in.BatteryLevel < 0 || *in.BatteryLevel > 100) {
		return apperr.Validation("battery_level must be within [0, 100]")
	}
	return nil
}
