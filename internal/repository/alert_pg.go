package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/pkg/xerrors"
)

type pgAlertRepo struct {
	db *pgxpool.Pool
}

// NewAlertRepository returns the durable pgx-backed alert store
func NewAlertRepository(db *pgxpool.Pool) AlertRepository {
	return &pgAlertRepo{db: db}
}

func (p *pgAlertRepo) Create(ctx context.Context, a *domain.Alert) error {
	channels, _ := json.Marshal(a.Channels)
	actions, _ := json.Marshal(a.Actions)
	metadata, _ := json.Marshal(a.Metadata)
	var crisis []byte
	if a.Crisis != nil {
		crisis, _ = json.Marshal(a.Crisis)
	}

	query := `
		INSERT INTO alerts (
			id, request_id, user_id, alert_type, priority, title, message,
			channels, actions, status, is_emergency, requires_ack,
			created_at, expires_at, delivered_at, read_at, snoozed_until, metadata, crisis
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`
	_, err := p.db.Exec(ctx, query,
		a.ID, a.RequestID, a.UserID, a.Type, a.Priority, a.Title, a.Message,
		channels, actions, a.Status, a.IsEmergency, a.RequiresAck,
		a.CreatedAt, a.ExpiresAt, a.DeliveredAt, a.ReadAt, a.SnoozedUntil, metadata, crisis,
	)
	if err != nil {
		log.Printf("⚠️ Insert alert %s failed (pg code %s): %v", a.ID, xerrors.ParsePGErrorCode(err), err)
		return err
	}
	return nil
}

const alertColumns = `
	id, request_id, user_id, alert_type, priority, title, message,
	channels, actions, status, is_emergency, requires_ack,
	created_at, expires_at, delivered_at, read_at, snoozed_until, metadata, crisis
`

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	var channels, actions, metadata, crisis []byte
	err := row.Scan(
		&a.ID, &a.RequestID, &a.UserID, &a.Type, &a.Priority, &a.Title, &a.Message,
		&channels, &actions, &a.Status, &a.IsEmergency, &a.RequiresAck,
		&a.CreatedAt, &a.ExpiresAt, &a.DeliveredAt, &a.ReadAt, &a.SnoozedUntil, &metadata, &crisis,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrAlertNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal(channels, &a.Channels)
	_ = json.Unmarshal(actions, &a.Actions)
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &a.Metadata)
	}
	if len(crisis) > 0 {
		_ = json.Unmarshal(crisis, &a.Crisis)
	}
	return &a, nil
}

func (p *pgAlertRepo) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	return scanAlert(p.db.QueryRow(ctx, query, id))
}

func (p *pgAlertRepo) Update(ctx context.Context, a *domain.Alert) error {
	metadata, _ := json.Marshal(a.Metadata)
	var crisis []byte
	if a.Crisis != nil {
		crisis, _ = json.Marshal(a.Crisis)
	}

	query := `
		UPDATE alerts
		SET status = $2,
		    delivered_at = $3,
		    read_at = $4,
		    snoozed_until = $5,
		    metadata = $6,
		    crisis = $7
		WHERE id = $1
	`
	ct, err := p.db.Exec(ctx, query, a.ID, a.Status, a.DeliveredAt, a.ReadAt, a.SnoozedUntil, metadata, crisis)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return xerrors.ErrAlertNotFound
	}
	return nil
}

func (p *pgAlertRepo) Delete(ctx context.Context, id string) error {
	ct, err := p.db.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return xerrors.ErrAlertNotFound
	}
	return nil
}

func (p *pgAlertRepo) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE user_id = $1
		  AND status IN ('pending', 'sent', 'delivered')
		ORDER BY created_at DESC
	`
	rows, err := p.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (p *pgAlertRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	ct, err := p.db.Exec(ctx, `DELETE FROM alerts WHERE expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func (p *pgAlertRepo) AddChannelResults(ctx context.Context, results []domain.ChannelResult) error {
	for _, r := range results {
		_, err := p.db.Exec(ctx, `
			INSERT INTO alert_deliveries (alert_id, channel, ok, last_error, attempted_at)
			VALUES ($1, $2, $3, $4, $5)
		`, r.AlertID, r.Channel, r.OK, r.Error, r.AttemptedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *pgAlertRepo) ListChannelResults(ctx context.Context, alertID string) ([]domain.ChannelResult, error) {
	rows, err := p.db.Query(ctx, `
		SELECT alert_id, channel, ok, last_error, attempted_at
		FROM alert_deliveries
		WHERE alert_id = $1
		ORDER BY attempted_at ASC
	`, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ChannelResult
	for rows.Next() {
		var r domain.ChannelResult
		if err := rows.Scan(&r.AlertID, &r.Channel, &r.OK, &r.Error, &r.AttemptedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
