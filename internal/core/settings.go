package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Setting keys stored in company_settings.
const (
	settingVATPercent          = "vat_percentage"
	settingPPDAPercent         = "ppda_levy_percentage"
	settingVATBase             = "vat_base"
	settingNegativeStockPolicy = "negative_stock_policy"
)

// Defaults applied when no settings row exists.
var (
	defaultVATPercent  = decimal.RequireFromString("16.5")
	defaultPPDAPercent = decimal.RequireFromString("1.00")
)

// SettingsService resolves business configuration from the
// company_settings table, falling back to the documented defaults.
// It replaces hardcoded rate constants in the financial services.
type SettingsService interface {
	// TotalsConfig returns the levy/VAT configuration. PPDAEnabled is a
	// per-document choice and is left false; callers set it.
	TotalsConfig(ctx context.Context) (TotalsConfig, error)
	NegativeStockPolicy(ctx context.Context) (NegativeStockPolicy, error)
	Set(ctx context.Context, key, value string) error
}

type settingsService struct {
	pool *pgxpool.Pool
}

// NewSettingsService constructs a SettingsService backed by the given pool.
func NewSettingsService(pool *pgxpool.Pool) SettingsService {
	return &settingsService{pool: pool}
}

func (s *settingsService) lookup(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		"SELECT value FROM company_settings WHERE key = $1", key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, persistence(fmt.Sprintf("lookup setting %s", key), err)
	}
	return value, true, nil
}

func (s *settingsService) decimalSetting(ctx context.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw, ok, err := s.lookup(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, validationErrorf(key, "stored value %q is not a number", raw)
	}
	return d, nil
}

func (s *settingsService) TotalsConfig(ctx context.Context) (TotalsConfig, error) {
	vat, err := s.decimalSetting(ctx, settingVATPercent, defaultVATPercent)
	if err != nil {
		return TotalsConfig{}, err
	}
	ppda, err := s.decimalSetting(ctx, settingPPDAPercent, defaultPPDAPercent)
	if err != nil {
		return TotalsConfig{}, err
	}
	base := VATBaseGross
	if raw, ok, err := s.lookup(ctx, settingVATBase); err != nil {
		return TotalsConfig{}, err
	} else if ok && VATBase(raw) == VATBaseGrossPlusLevy {
		base = VATBaseGrossPlusLevy
	}
	return TotalsConfig{PPDAPercent: ppda, VATPercent: vat, VATBase: base}, nil
}

func (s *settingsService) NegativeStockPolicy(ctx context.Context) (NegativeStockPolicy, error) {
	raw, ok, err := s.lookup(ctx, settingNegativeStockPolicy)
	if err != nil {
		return NegativeStockReject, err
	}
	if ok && NegativeStockPolicy(raw) == NegativeStockAllow {
		return NegativeStockAllow, nil
	}
	return NegativeStockReject, nil
}

func (s *settingsService) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO company_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return persistence(fmt.Sprintf("set setting %s", key), err)
	}
	return nil
}
