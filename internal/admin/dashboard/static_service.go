package dashboard

import (
	"context"
	"time"

	"github.com/pwm-project/pwm-admin/internal/admin/catalog"
	"github.com/pwm-project/pwm-admin/internal/admin/settings"
)

// StaticService derives the overview locally from the catalog and a settings
// service, for development and handler tests.
type StaticService struct {
	catalog   *catalog.Catalog
	settings  settings.Service
	startedAt time.Time
}

// NewStaticService constructs the local summariser.
func NewStaticService(cat *catalog.Catalog, svc settings.Service) *StaticService {
	return &StaticService{
		catalog:   cat,
		settings:  svc,
		startedAt: time.Now().UTC(),
	}
}

// Overview counts settings per catalog category and lists modified keys.
func (s *StaticService) Overview(ctx context.Context, token string) (*Overview, error) {
	overview := &Overview{
		ServerVersion: "PWM Development Server",
		StartedAt:     s.startedAt,
		TotalSettings: s.catalog.Len(),
	}

	modified := make(map[string]bool)
	if s.settings != nil {
		keys, err := s.settings.ListModified(ctx, token)
		if err != nil {
			return nil, err
		}
		overview.ModifiedKeys = keys
		for _, key := range keys {
			modified[key] = true
		}
	}

	counts := make(map[string]*CategoryCount)
	order := make([]string, 0)
	for _, d := range s.catalog.All() {
		c, ok := counts[d.Category]
		if !ok {
			c = &CategoryCount{Category: d.Category}
			counts[d.Category] = c
			order = append(order, d.Category)
		}
		c.Total++
		if modified[d.Key] {
			c.Modified++
		}
	}
	for _, category := range order {
		overview.Categories = append(overview.Categories, *counts[category])
	}
	return overview, nil
}
