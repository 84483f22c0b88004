package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

// ConfidenceThresholdKey is the system_settings row holding the gate threshold.
const ConfidenceThresholdKey = "ai_confidence_threshold"

// SettingsRepository reads system settings. The threshold may be stored as a
// fraction (0.8) or as the percentage the settings screen shows (80).
type SettingsRepository struct {
	db       *sql.DB
	fallback float64
}

func NewSettingsRepository(db *sql.DB, fallback float64) *SettingsRepository {
	if !domain.ValidThreshold(fallback) {
		fallback = domain.DefaultConfidenceThreshold
	}
	return &SettingsRepository{db: db, fallback: fallback}
}

func (r *SettingsRepository) ConfidenceThreshold(ctx context.Context) (float64, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT setting_value FROM system_settings WHERE setting_key=? LIMIT 1;`, ConfidenceThresholdKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return r.fallback, nil
	}
	if err != nil {
		return 0, err
	}
	return ParseThreshold(raw)
}

// SetConfidenceThreshold upserts the threshold as a fraction.
func (r *SettingsRepository) SetConfidenceThreshold(ctx context.Context, t float64) error {
	if !domain.ValidThreshold(t) {
		return fmt.Errorf("%w: threshold %v", domain.ErrInvalidScore, t)
	}
	const q = `
INSERT INTO system_settings (setting_key, setting_value, updated_at)
VALUES (?, ?, UTC_TIMESTAMP(6))
ON DUPLICATE KEY UPDATE setting_value=VALUES(setting_value), updated_at=VALUES(updated_at);`
	_, err := r.db.ExecContext(ctx, q, ConfidenceThresholdKey, strconv.FormatFloat(t, 'f', -1, 64))
	return err
}

// ParseThreshold accepts "0.8", "80" or "80%".
func ParseThreshold(raw string) (float64, error) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("threshold %q: %w", raw, err)
	}
	if v > 1 && v <= 100 {
		v = v / 100
	}
	if !domain.ValidThreshold(v) {
		return 0, fmt.Errorf("threshold %q out of range", raw)
	}
	return v, nil
}
