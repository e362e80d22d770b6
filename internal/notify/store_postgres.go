package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed notification store. Recipient and
// read-by lists are jsonb arrays; marking read is a single conditional
// array union, so repeated marks by the same user stay idempotent under
// concurrency.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed notification store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(n Notification) (Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if n.Message == "" {
		return Notification{}, fmt.Errorf("message is required: %w", apperr.ErrValidation)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	recipients, err := json.Marshal(emptyIfNil(n.Recipients))
	if err != nil {
		return Notification{}, fmt.Errorf("marshal recipients: %w", err)
	}
	readBy, err := json.Marshal(emptyIfNil(n.ReadBy))
	if err != nil {
		return Notification{}, fmt.Errorf("marshal read_by: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO notifications (id, message, type, recipients, read_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.Message, n.Type, recipients, readBy, n.CreatedAt)
	if err != nil {
		return Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Get(id string) (*Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	return scanNotification(s.pool.QueryRow(ctx, notificationSelect+` WHERE id = $1`, id), id)
}

func (s *PostgresStore) List() ([]Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, notificationSelect+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (s *PostgresStore) FeedFor(userID string, lastLogin time.Time) ([]Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	probe, err := json.Marshal([]string{userID})
	if err != nil {
		return nil, fmt.Errorf("marshal user id: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		notificationSelect+`
		 WHERE (recipients @> $1::jsonb OR recipients = '[]'::jsonb)
		   AND NOT read_by @> $1::jsonb
		   AND created_at > $2
		 ORDER BY created_at DESC`,
		string(probe), lastLogin)
	if err != nil {
		return nil, fmt.Errorf("notification feed: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (s *PostgresStore) MarkRead(id, userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	probe, err := json.Marshal([]string{userID})
	if err != nil {
		return fmt.Errorf("marshal user id: %w", err)
	}
	cmd, err := s.pool.Exec(ctx,
		`UPDATE notifications
		 SET read_by = read_by || $2::jsonb
		 WHERE id = $1 AND NOT read_by @> $2::jsonb`,
		id, string(probe))
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		// Already read, or the notification does not exist.
		if _, err := s.Get(id); err != nil {
			return err
		}
	}
	return nil
}

const notificationSelect = `SELECT id, message, type, recipients, read_by, created_at
FROM notifications`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner, id string) (*Notification, error) {
	var n Notification
	var recipients, readBy []byte

	err := row.Scan(&n.ID, &n.Message, &n.Type, &recipients, &readBy, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	if err := json.Unmarshal(recipients, &n.Recipients); err != nil {
		return nil, fmt.Errorf("unmarshal recipients: %w", err)
	}
	if err := json.Unmarshal(readBy, &n.ReadBy); err != nil {
		return nil, fmt.Errorf("unmarshal read_by: %w", err)
	}
	return &n, nil
}

func collect(rows pgx.Rows) ([]Notification, error) {
	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
