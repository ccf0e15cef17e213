package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

type SettingsService struct {
	repo   *repository.SettingsRepository
	logger *slog.Logger
}

func NewSettingsService(store docstore.Store, logger *slog.Logger) *SettingsService {
	return &SettingsService{repo: repository.NewSettingsRepository(store), logger: logger}
}

// GetSettings returns the stored settings, creating the defaults on first
// read.
func (s *SettingsService) GetSettings(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.repo.GetOrCreate(ctx, domain.DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// SettingsPatch holds the fields to change; nil fields are left alone.
type SettingsPatch struct {
	StoreName       *string          `json:"store_name"`
	ContactEmail    *string          `json:"contact_email" validate:"omitempty,email"`
	Currency        *string          `json:"currency"`
	TaxRate         *decimal.Decimal `json:"tax_rate"`
	MaintenanceMode *bool            `json:"maintenance_mode"`
}

func (s *SettingsService) UpdateSettings(ctx context.Context, patch SettingsPatch) (*domain.Settings, error) {
	current, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	next := *current
	var fields []string
	if patch.StoreName != nil {
		next.StoreName = strings.TrimSpace(*patch.StoreName)
		fields = append(fields, "store_name")
	}
	if patch.ContactEmail != nil {
		next.ContactEmail = *patch.ContactEmail
		fields = append(fields, "contact_email")
	}
	if patch.Currency != nil {
		next.Currency = strings.ToUpper(*patch.Currency)
		fields = append(fields, "currency")
	}
	if patch.TaxRate != nil {
		next.TaxRate = *patch.TaxRate
		fields = append(fields, "tax_rate")
	}
	if patch.MaintenanceMode != nil {
		next.MaintenanceMode = *patch.MaintenanceMode
		fields = append(fields, "maintenance_mode")
	}
	if len(fields) == 0 {
		return current, nil
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	update, err := repository.Patch(&next, fields...)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	s.logger.InfoContext(ctx, "settings updated", slog.String("fields", strings.Join(fields, ",")))
	return updated, nil
}
