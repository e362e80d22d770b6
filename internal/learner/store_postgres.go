package learner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed learner Store. History lists live
// in jsonb columns; appends run as single conditional UPDATEs (jsonb
// array union guarded by a containment probe) so two concurrent requests
// for the same user cannot lose each other's writes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed learner store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(u User) (User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if u.Username == "" || u.Email == "" {
		return User{}, fmt.Errorf("username and email are required: %w", apperr.ErrValidation)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	interests, err := json.Marshal(emptyIfNil(u.Interests))
	if err != nil {
		return User{}, fmt.Errorf("marshal interests: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, about, interests)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.About, interests,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("username or email already exists: %w", apperr.ErrValidation)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Get(id string) (*User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	return s.scanUser(s.pool.QueryRow(ctx, userSelect+` WHERE id = $1`, id), id)
}

func (s *PostgresStore) GetByEmail(email string) (*User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	return s.scanUser(s.pool.QueryRow(ctx, userSelect+` WHERE email = $1`, email), email)
}

func (s *PostgresStore) List() ([]User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, userSelect+` ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := s.scanUser(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count() (int, error) {
	return s.count(`SELECT COUNT(*) FROM users`)
}

func (s *PostgresStore) CountAdmins() (int, error) {
	return s.count(`SELECT COUNT(*) FROM users WHERE role = 'admin'`)
}

func (s *PostgresStore) UpdateProfile(id string, p ProfileUpdate) (*User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var interests any
	if p.Interests != nil {
		raw, err := json.Marshal(*p.Interests)
		if err != nil {
			return nil, fmt.Errorf("marshal interests: %w", err)
		}
		interests = string(raw)
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET username  = COALESCE(NULLIF($2, ''), username),
		     email     = COALESCE(NULLIF($3, ''), email),
		     about     = COALESCE($4, about),
		     interests = COALESCE($5::jsonb, interests),
		     updated_at = NOW()
		 WHERE id = $1`,
		id, strOrEmpty(p.Username), strOrEmpty(p.Email), p.About, interests)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return s.Get(id)
}

func (s *PostgresStore) SetPasswordHash(id, hash string) error {
	return s.exec(`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		"set password", id, hash)
}

func (s *PostgresStore) SetRole(id, role string) error {
	return s.exec(`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`,
		"set role", id, role)
}

func (s *PostgresStore) Delete(id string) error {
	return s.exec(`DELETE FROM users WHERE id = $1`, "delete user", id)
}

func (s *PostgresStore) TouchLastLogin(id string, at time.Time) error {
	return s.exec(`UPDATE users SET last_login = $2, updated_at = NOW() WHERE id = $1`,
		"touch last login", id, at)
}

func (s *PostgresStore) AppendCompleted(id, topicID string, at time.Time) (bool, error) {
	entry, err := json.Marshal([]CompletedTopic{{TopicID: topicID, CompletedAt: at}})
	if err != nil {
		return false, fmt.Errorf("marshal completion: %w", err)
	}
	return s.appendIfAbsent(id, "completed_topics", string(entry), topicProbe(topicID))
}

func (s *PostgresStore) AppendViewed(id, topicID string, at time.Time, shortDescription string) (bool, error) {
	entry, err := json.Marshal([]ViewedTopic{{TopicID: topicID, ViewedAt: at, ShortDescription: shortDescription}})
	if err != nil {
		return false, fmt.Errorf("marshal view: %w", err)
	}
	return s.appendIfAbsent(id, "viewed_topics", string(entry), topicProbe(topicID))
}

// appendIfAbsent appends entry to the named jsonb list in one statement,
// guarded by a containment probe on the topic id. This is the atomic
// append that closes the read-modify-write race on shared user arrays.
func (s *PostgresStore) appendIfAbsent(id, column, entry, probe string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := fmt.Sprintf(
		`UPDATE users SET %s = %s || $2::jsonb, updated_at = NOW()
		 WHERE id = $1 AND NOT %s @> $3::jsonb`, column, column, column)
	cmd, err := s.pool.Exec(ctx, query, id, entry, probe)
	if err != nil {
		return false, fmt.Errorf("append to %s: %w", column, err)
	}
	if cmd.RowsAffected() == 1 {
		return true, nil
	}
	// No row changed: the user is missing or the entry already exists.
	if _, err := s.Get(id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *PostgresStore) UpsertRecentActivity(id string, e ActivityEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	// The ring update is not expressible as a single array union; a row
	// lock keeps the read-modify-write atomic per user document.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT recent_activity FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return fmt.Errorf("load recent activity: %w", err)
	}

	var entries []ActivityEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("unmarshal recent activity: %w", err)
	}
	updated, err := json.Marshal(UpsertRecent(entries, e, RecentActivityCap))
	if err != nil {
		return fmt.Errorf("marshal recent activity: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET recent_activity = $2, updated_at = NOW() WHERE id = $1`,
		id, updated); err != nil {
		return fmt.Errorf("store recent activity: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) AssignPath(id, pathID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	probe, err := json.Marshal([]string{pathID})
	if err != nil {
		return fmt.Errorf("marshal path id: %w", err)
	}
	cmd, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET learning_paths = learning_paths || $2::jsonb, updated_at = NOW()
		 WHERE id = $1 AND NOT learning_paths @> $2::jsonb`,
		id, string(probe))
	if err != nil {
		return fmt.Errorf("assign path: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		if _, err := s.Get(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) UnassignPath(id, pathID string) error {
	return s.exec(
		`UPDATE users SET learning_paths = learning_paths - $2, updated_at = NOW() WHERE id = $1`,
		"unassign path", id, pathID)
}

func (s *PostgresStore) UpsertQuizScore(id, courseID string, score int) (int, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT quiz_scores FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return 0, false, fmt.Errorf("load quiz scores: %w", err)
	}

	var scores []QuizScore
	if err := json.Unmarshal(raw, &scores); err != nil {
		return 0, false, fmt.Errorf("unmarshal quiz scores: %w", err)
	}

	best, updated := score, true
	found := false
	for i, qs := range scores {
		if qs.CourseID == courseID {
			found = true
			if score > qs.Score {
				scores[i].Score = score
			} else {
				best, updated = qs.Score, false
			}
			break
		}
	}
	if !found {
		scores = append(scores, QuizScore{CourseID: courseID, Score: score})
	}
	if updated {
		out, err := json.Marshal(scores)
		if err != nil {
			return 0, false, fmt.Errorf("marshal quiz scores: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET quiz_scores = $2, updated_at = NOW() WHERE id = $1`,
			id, out); err != nil {
			return 0, false, fmt.Errorf("store quiz scores: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("commit: %w", err)
	}
	return best, updated, nil
}

const userSelect = `SELECT id, username, email, password_hash, role, about, interests,
       completed_topics, viewed_topics, recent_activity, learning_paths, quiz_scores,
       last_login, created_at, updated_at
FROM users`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanUser(row rowScanner, key string) (*User, error) {
	var u User
	var interests, completed, viewed, activity, paths, scores []byte

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.About,
		&interests, &completed, &viewed, &activity, &paths, &scores,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", key, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{interests, &u.Interests},
		{completed, &u.CompletedTopics},
		{viewed, &u.ViewedTopics},
		{activity, &u.RecentActivity},
		{paths, &u.LearningPaths},
		{scores, &u.QuizScores},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("unmarshal user field: %w", err)
		}
	}
	return &u, nil
}

func (s *PostgresStore) count(query string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var n int
	if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) exec(query, op string, args ...any) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func topicProbe(topicID string) string {
	probe, _ := json.Marshal([]map[string]string{{"topic_id": topicID}})
	return string(probe)
}

// isUniqueViolation reports whether err is a 23505 unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
