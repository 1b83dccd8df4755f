package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"worktrack/internal/apperr"
	"worktrack/internal/geo"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

const (
	officeCacheKey = "wt:offices:active"
	officeCacheTTL = 5 * time.Minute
)

// OfficeService manages office geofences and labels coordinates with the office they fall in.
// Classification is advisory: it never rejects a clock-in or clock-out.
type OfficeService struct {
	store         store.Store
	redis         *redis.Client
	defaultRadius float64
}

// NewOfficeService creates a new office service; redisClient may be nil
func NewOfficeService(st store.Store, redisClient *redis.Client, defaultRadius float64) *OfficeService {
	if defaultRadius <= 0 {
		defaultRadius = 100
	}
	return &OfficeService{
		store:         st,
		redis:         redisClient,
		defaultRadius: defaultRadius,
	}
}

// OfficeLabel is the address recorded for a point inside an office
func OfficeLabel(name string) string {
	return name + " Office"
}

// Classify returns the first active office containing c. The employee's home office
// is checked first, then the remaining offices by id.
func (s *OfficeService) Classify(ctx context.Context, c model.Coordinates, homeOffice string) (string, bool) {
	offices, err := s.activeOffices(ctx)
	if err != nil {
		log.Printf("[Office] Failed to load offices, skipping classification: %v", err)
		return "", false
	}
	return geo.Classify(c.Latitude, c.Longitude, candidateFences(offices, homeOffice))
}

func candidateFences(offices []model.OfficeLocation, homeOffice string) []geo.Fence {
	fences := make([]geo.Fence, 0, len(offices))
	var rest []geo.Fence
	for _, o := range offices {
		f := geo.Fence{Name: o.Name, Latitude: o.Latitude, Longitude: o.Longitude, RadiusMeters: o.RadiusMeters}
		if homeOffice != "" && strings.EqualFold(o.Name, homeOffice) {
			fences = append(fences, f)
			continue
		}
		rest = append(rest, f)
	}
	return append(fences, rest...)
}

// Check reports the distance from c to every active office
func (s *OfficeService) Check(ctx context.Context, c model.Coordinates) ([]model.OfficeDistance, error) {
	if err := validateCoordinates(c); err != nil {
		return nil, err
	}
	offices, err := s.activeOffices(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]model.OfficeDistance, 0, len(offices))
	for _, o := range offices {
		d := geo.Distance(c.Latitude, c.Longitude, o.Latitude, o.Longitude)
		result = append(result, model.OfficeDistance{
			Office:         o.Name,
			DistanceMeters: d,
			RadiusMeters:   o.RadiusMeters,
			WithinRadius:   d <= o.RadiusMeters,
		})
	}
	return result, nil
}

// List returns offices ordered by id
func (s *OfficeService) List(ctx context.Context, activeOnly bool) ([]model.OfficeLocation, error) {
	return s.store.Offices().List(ctx, activeOnly)
}

// Get returns an office by id
func (s *OfficeService) Get(ctx context.Context, id uint) (*model.OfficeLocation, error) {
	return s.store.Offices().FindByID(ctx, id)
}

// Create adds an active office
func (s *OfficeService) Create(ctx context.Context, req model.OfficeRequest) (*model.OfficeLocation, error) {
	office := &model.OfficeLocation{IsActive: true}
	if err := s.apply(office, req); err != nil {
		return nil, err
	}
	if err := s.store.Offices().Create(ctx, office); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return office, nil
}

// Update replaces the geofence of an office
func (s *OfficeService) Update(ctx context.Context, id uint, req model.OfficeRequest) (*model.OfficeLocation, error) {
	office, err := s.store.Offices().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(office, req); err != nil {
		return nil, err
	}
	if err := s.store.Offices().Update(ctx, office); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return office, nil
}

// SetActive enables or disables an office for classification
func (s *OfficeService) SetActive(ctx context.Context, id uint, active bool) (*model.OfficeLocation, error) {
	office, err := s.store.Offices().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	office.IsActive = active
	if err := s.store.Offices().Update(ctx, office); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return office, nil
}

// Bootstrap inserts defaults when no office exists yet and returns how many were added
func (s *OfficeService) Bootstrap(ctx context.Context, defaults []model.OfficeLocation) (int, error) {
	n, err := s.store.Offices().Count(ctx)
	if err != nil || n > 0 {
		return 0, err
	}

	added := 0
	for _, d := range defaults {
		office := d
		office.ID = 0
		office.IsActive = true
		if office.RadiusMeters <= 0 {
			office.RadiusMeters = s.defaultRadius
		}
		if !geo.ValidCoordinates(office.Latitude, office.Longitude) {
			log.Printf("[Office] Skipping default office %s: invalid coordinates", office.Name)
			continue
		}
		if err := s.store.Offices().Create(ctx, &office); err != nil {
			return added, err
		}
		added++
	}
	s.invalidate(ctx)
	return added, nil
}

func (s *OfficeService) apply(office *model.OfficeLocation, req model.OfficeRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return apperr.Validation("office name is required")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return apperr.Validation("latitude and longitude are required")
	}
	c := model.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := validateCoordinates(c); err != nil {
		return err
	}
	radius := req.RadiusMeters
	if radius == 0 {
		radius = s.defaultRadius
	}
	if radius < 0 {
		return apperr.Validation("radius_meters must be positive")
	}

	office.Name = name
	office.Latitude = c.Latitude
	office.Longitude = c.Longitude
	office.RadiusMeters = radius
	office.Address = req.Address
	return nil
}

// activeOffices reads the active offices through the redis cache when one is configured
func (s *OfficeService) activeOffices(ctx context.Context) ([]model.OfficeLocation, error) {
	if s.redis != nil {
		if data, err := s.redis.Get(ctx, officeCacheKey).Bytes(); err == nil {
			var offices []model.OfficeLocation
			if err := json.Unmarshal(data, &offices); err == nil {
				return offices, nil
			}
		}
	}

	offices, err := s.store.Offices().List(ctx, true)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(offices); err == nil {
			if err := s.redis.Set(ctx, officeCacheKey, data, officeCacheTTL).Err(); err != nil {
				log.Printf("[Office] Failed to cache offices: %v", err)
			}
		}
	}
	return offices, nil
}

func (s *OfficeService) invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, officeCacheKey).Err(); err != nil {
		log.Printf("[Office] Failed to invalidate office cache: %v", err)
	}
}
