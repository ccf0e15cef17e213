package repository

import (
	"context"
	"errors"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type SettingsRepository struct {
	c collection[domain.Settings]
}

func NewSettingsRepository(store docstore.Store) *SettingsRepository {
	return &SettingsRepository{c: collection[domain.Settings]{store: store, name: domain.CollectionSettings}}
}

func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	return r.c.get(ctx, domain.SettingsID)
}

// GetOrCreate returns the stored settings, creating them from defaults if
// none exist. The create is conditional on the id being free, so two
// concurrent first reads converge on whichever write landed.
func (r *SettingsRepository) GetOrCreate(ctx context.Context, defaults domain.Settings) (*domain.Settings, error) {
	s, err := r.Get(ctx)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	s, err = r.c.create(ctx, domain.SettingsID, &defaults)
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		return r.Get(ctx)
	}
	return s, err
}

func (r *SettingsRepository) Update(ctx context.Context, fields map[string]any) (*domain.Settings, error) {
	return r.c.update(ctx, domain.SettingsID, fields)
}
