package departments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maildesk/internal/cache"
	"maildesk/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNoFallback is returned when the configured fallback department is
// missing. This is a configuration fault: the whole run must stop rather
// than silently dropping messages.
var ErrNoFallback = errors.New("fallback department not configured")

const cacheKey = "departments_snapshot"

var titleCaser = cases.Title(language.English)

// Directory resolves classification labels to routing targets. The
// department table is small, so it is served from a TTL-cached snapshot.
type Directory struct {
	db       *sqlx.DB
	cache    *cache.Cache
	cacheTTL time.Duration
	fallback string
	logger   zerolog.Logger
}

// NewDirectory creates a directory with the given fallback department name
func NewDirectory(db *sqlx.DB, c *cache.Cache, fallback string, logger zerolog.Logger) *Directory {
	return &Directory{
		db:       db,
		cache:    c,
		cacheTTL: time.Minute,
		fallback: fallback,
		logger:   logger.With().Str("component", "departments").Logger(),
	}
}

// All returns the current department list
func (d *Directory) All(ctx context.Context) ([]models.Department, error) {
	if cached, ok := d.cache.Get(cacheKey); ok {
		if snapshot, ok := cached.([]models.Department); ok {
			return snapshot, nil
		}
	}

	var snapshot []models.Department
	if err := d.db.SelectContext(ctx, &snapshot,
		`SELECT id, name, head_name, head_email FROM departments ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to load departments: %w", err)
	}

	d.cache.Set(cacheKey, snapshot, d.cacheTTL)
	return snapshot, nil
}

// Names returns all department names, used to constrain the classifier prompt
func (d *Directory) Names(ctx context.Context) ([]string, error) {
	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(all))
	for i, dept := range all {
		names[i] = dept.Name
	}
	return names, nil
}

// Resolve maps a classification label to a department. Match order: exact,
// then case-insensitive, then title-cased (classifiers like to shout), then
// the fallback department. A missing fallback is fatal for the caller's run.
func (d *Directory) Resolve(ctx context.Context, label string) (models.Department, bool, error) {
	all, err := d.All(ctx)
	if err != nil {
		return models.Department{}, false, err
	}

	label = strings.TrimSpace(label)

	if dept, ok := match(all, label); ok {
		return dept, false, nil
	}
	if dept, ok := matchFold(all, label); ok {
		d.logger.Debug().Str("label", label).Str("matched", dept.Name).Msg("case-insensitive department match")
		return dept, false, nil
	}
	if dept, ok := match(all, titleCaser.String(strings.ToLower(label))); ok {
		d.logger.Debug().Str("label", label).Str("matched", dept.Name).Msg("title-cased department match")
		return dept, false, nil
	}

	d.logger.Info().Str("label", label).Str("fallback", d.fallback).Msg("unknown department, using fallback")

	fallback, ok := matchFold(all, d.fallback)
	if !ok {
		return models.Department{}, false, fmt.Errorf("%w: %q", ErrNoFallback, d.fallback)
	}
	return fallback, true, nil
}

// UpdateHead sets the accountable contact for a department
func (d *Directory) UpdateHead(ctx context.Context, id int, headName, headEmail string) error {
	query := d.db.Rebind(`UPDATE departments SET head_name = ?, head_email = ? WHERE id = ?`)
	res, err := d.db.ExecContext(ctx, query, headName, headEmail, id)
	if err != nil {
		return fmt.Errorf("failed to update department head: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("department %d not found", id)
	}

	// The snapshot is stale now
	d.cache.Delete(cacheKey)
	return nil
}

func match(all []models.Department, name string) (models.Department, bool) {
	for _, dept := range all {
		if dept.Name == name {
			return dept, true
		}
	}
	return models.Department{}, false
}

func matchFold(all []models.Department, name string) (models.Department, bool) {
	for _, dept := range all {
		if strings.EqualFold(dept.Name, name) {
			return dept, true
		}
	}
	return models.Department{}, false
}
