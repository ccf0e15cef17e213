package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SettingsID is the id of the single settings document.
const SettingsID = "store"

type Settings struct {
	ID              string          `json:"id"`
	StoreName       string          `json:"store_name"`
	ContactEmail    string          `json:"contact_email"`
	Currency        string          `json:"currency"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	MaintenanceMode bool            `json:"maintenance_mode"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DefaultSettings is what the store starts with when nothing is stored yet.
func DefaultSettings() Settings {
	return Settings{
		ID:           SettingsID,
		StoreName:    "Storefront",
		ContactEmail: "support@example.com",
		Currency:     "USD",
		TaxRate:      decimal.Zero,
	}
}

func (s *Settings) Validate() error {
	if strings.TrimSpace(s.StoreName) == "" {
		return invalid("store name is required")
	}
	if s.TaxRate.IsNegative() || s.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return invalid("tax rate must be between 0 and 1")
	}
	if len(s.Currency) != 3 {
		return invalid("currency must be a 3-letter code")
	}
	return nil
}
