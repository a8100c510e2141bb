package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/pkg/xerrors"
)

type pgPreferenceRepo struct {
	db *pgxpool.Pool
}

// NewPreferenceRepository returns the durable pgx-backed preference store
func NewPreferenceRepository(db *pgxpool.Pool) PreferenceRepository {
	return &pgPreferenceRepo{db: db}
}

func (p *pgPreferenceRepo) Get(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	query := `
		SELECT user_id, channels, categories, emergency_contact_alerts,
		       quiet_hours, contact_name, contact_email, contact_phone,
		       emergency_contacts, created_at, updated_at
		FROM notification_preferences
		WHERE user_id = $1
	`
	var pref domain.NotificationPreferences
	var channels, categories, quietHours, contacts []byte
	err := p.db.QueryRow(ctx, query, userID).Scan(
		&pref.UserID, &channels, &categories, &pref.EmergencyContactAlerts,
		&quietHours, &pref.ContactName, &pref.ContactEmail, &pref.ContactPhone,
		&contacts, &pref.CreatedAt, &pref.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrPreferencesNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal(channels, &pref.Channels)
	_ = json.Unmarshal(categories, &pref.Categories)
	_ = json.Unmarshal(quietHours, &pref.QuietHours)
	if len(contacts) > 0 {
		_ = json.Unmarshal(contacts, &pref.EmergencyContacts)
	}
	return &pref, nil
}

func (p *pgPreferenceRepo) Upsert(ctx context.Context, pref *domain.NotificationPreferences) (*domain.NotificationPreferences, error) {
	channels, _ := json.Marshal(pref.Channels)
	categories, _ := json.Marshal(pref.Categories)
	quietHours, _ := json.Marshal(pref.QuietHours)
	contacts, _ := json.Marshal(pref.EmergencyContacts)

	now := time.Now()
	pref.UpdatedAt = now
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = now
	}

	// Full overwrite on conflict: a saved record replaces the prior one wholesale
	query := `
		INSERT INTO notification_preferences (
			user_id, channels, categories, emergency_contact_alerts,
			quiet_hours, contact_name, contact_email, contact_phone,
			emergency_contacts, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (user_id) DO UPDATE SET
			channels = EXCLUDED.channels,
			categories = EXCLUDED.categories,
			emergency_contact_alerts = EXCLUDED.emergency_contact_alerts,
			quiet_hours = EXCLUDED.quiet_hours,
			contact_name = EXCLUDED.contact_name,
			contact_email = EXCLUDED.contact_email,
			contact_phone = EXCLUDED.contact_phone,
			emergency_contacts = EXCLUDED.emergency_contacts,
			updated_at = EXCLUDED.updated_at
	`
	_, err := p.db.Exec(ctx, query,
		pref.UserID, channels, categories, pref.EmergencyContactAlerts,
		quietHours, pref.ContactName, pref.ContactEmail, pref.ContactPhone,
		contacts, pref.CreatedAt, pref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return pref, nil
}

func (p *pgPreferenceRepo) Delete(ctx context.Context, userID string) error {
	ct, err := p.db.Exec(ctx, `DELETE FROM notification_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return xerrors.ErrPreferencesNotFound
	}
	return nil
}
