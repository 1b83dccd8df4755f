package service

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"worktrack/internal/apperr"
	"worktrack/internal/events"
	"worktrack/internal/geo"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

// Listing defaults
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// DefaultMaxLocationSamples is kept per employee when no limit is configured
const DefaultMaxLocationSamples = 1000

func newID() string {
	return uuid.New().String()
}

func validateCoordinates(c model.Coordinates) error {
	if !geo.ValidCoordinates(c.Latitude, c.Longitude) {
		return apperr.Validation("invalid coordinates: latitude must be within [-90, 90] and longitude within [-180, 180]")
	}
	return nil
}

// eventTime returns ts in UTC, or now when ts is nil
func eventTime(ts *time.Time, now func() time.Time) time.Time {
	if ts != nil && !ts.IsZero() {
		return ts.UTC()
	}
	return now().UTC()
}

func roundHours(d time.Duration) float64 {
	return roundFloat(d.Hours())
}

// roundFloat rounds to two decimals
func roundFloat(v float64) float64 {
	return math.Round(v*100) / 100
}

// appendSample writes a location sample and trims the employee's history to keep samples
func appendSample(ctx context.Context, tx store.Store, sample *model.LocationSample, keep int) error {
	if sample.ID == "" {
		sample.ID = newID()
	}
	if err := tx.Locations().Append(ctx, sample); err != nil {
		return err
	}
	if keep <= 0 {
		keep = DefaultMaxLocationSamples
	}
	_, err := tx.Locations().PruneOldest(ctx, sample.EmployeeID, keep)
	return err
}

// publish sends an event after the write it describes has committed.
// Failures are logged; the operation itself already succeeded.
func publish(bus events.Publisher, component, subject string, v interface{}) {
	if bus == nil {
		return
	}
	if err := bus.Publish(subject, v); err != nil {
		log.Printf("[%s] Failed to publish %s: %v", component, subject, err)
	}
}

func stringPtr(s string) *string {
	return &s
}
