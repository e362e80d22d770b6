package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed content Store. Topic prerequisite
// lists, course topic lists and path topic references are kept as jsonb
// columns; path references are resolved into tagged TopicRefs on read.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed content store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateTopic(t Topic) (Topic, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if t.Title == "" {
		return Topic{}, fmt.Errorf("topic title is required: %w", apperr.ErrValidation)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusPublished
	}

	edges, err := s.prereqEdges(ctx)
	if err != nil {
		return Topic{}, err
	}
	if err := ValidatePrerequisites(t.ID, t.Prerequisites, func(id string) []string { return edges[id] }); err != nil {
		return Topic{}, err
	}

	prereqs, err := json.Marshal(emptyIfNil(t.Prerequisites))
	if err != nil {
		return Topic{}, fmt.Errorf("marshal prerequisites: %w", err)
	}
	resources, err := json.Marshal(t.Resources)
	if err != nil {
		return Topic{}, fmt.Errorf("marshal resources: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO topics (id, title, description, content, difficulty, type, status,
		                     prerequisites, learning_path_id, ord, is_root, resources, creator_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at, updated_at`,
		t.ID, t.Title, t.Description, t.Content, t.Difficulty, t.Type, t.Status,
		prereqs, nullIfEmpty(t.LearningPathID), t.Order, t.IsRoot, resources, nullIfEmpty(t.CreatorID),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Topic{}, fmt.Errorf("create topic: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) GetTopic(id string) (*Topic, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	return s.scanTopic(s.pool.QueryRow(ctx, topicSelect+` WHERE id = $1`, id), id)
}

func (s *PostgresStore) UpdateTopic(t Topic) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	edges, err := s.prereqEdges(ctx)
	if err != nil {
		return err
	}
	if err := ValidatePrerequisites(t.ID, t.Prerequisites, func(id string) []string { return edges[id] }); err != nil {
		return err
	}

	prereqs, err := json.Marshal(emptyIfNil(t.Prerequisites))
	if err != nil {
		return fmt.Errorf("marshal prerequisites: %w", err)
	}
	resources, err := json.Marshal(t.Resources)
	if err != nil {
		return fmt.Errorf("marshal resources: %w", err)
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE topics
		 SET title = $2, description = $3, content = $4, difficulty = $5, type = $6,
		     status = $7, prerequisites = $8, learning_path_id = $9, ord = $10,
		     is_root = $11, resources = $12, updated_at = NOW()
		 WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Content, t.Difficulty, t.Type,
		t.Status, prereqs, nullIfEmpty(t.LearningPathID), t.Order, t.IsRoot, resources,
	)
	if err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("topic %s: %w", t.ID, apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteTopic(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM topics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("topic %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListTopics(status string) ([]Topic, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := topicSelect + ` ORDER BY ord ASC`
	args := []any{}
	if status != "" {
		query = topicSelect + ` WHERE status = $1 ORDER BY ord ASC`
		args = append(args, status)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()
	return s.collectTopics(rows)
}

func (s *PostgresStore) TopicsByIDs(ids []string) ([]Topic, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, topicSelect+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("topics by ids: %w", err)
	}
	defer rows.Close()
	return s.collectTopics(rows)
}

func (s *PostgresStore) CreateCourse(c Course) (Course, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if c.Title == "" {
		return Course{}, fmt.Errorf("course title is required: %w", apperr.ErrValidation)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	topics, err := json.Marshal(emptyIfNil(c.Topics))
	if err != nil {
		return Course{}, fmt.Errorf("marshal topics: %w", err)
	}
	deps, err := json.Marshal(emptyMapIfNil(c.Dependencies))
	if err != nil {
		return Course{}, fmt.Errorf("marshal dependencies: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO courses (id, title, description, level, topics, dependencies, first_topic)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		c.ID, c.Title, c.Description, c.Level, topics, deps, nullIfEmpty(c.FirstTopic),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Course{}, fmt.Errorf("create course: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetCourse(id string) (*Course, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	return s.scanCourse(s.pool.QueryRow(ctx, courseSelect+` WHERE id = $1`, id), id)
}

func (s *PostgresStore) UpdateCourse(c Course) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	topics, err := json.Marshal(emptyIfNil(c.Topics))
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	deps, err := json.Marshal(emptyMapIfNil(c.Dependencies))
	if err != nil {
		return fmt.Errorf("marshal dependencies: %w", err)
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE courses
		 SET title = $2, description = $3, level = $4, topics = $5,
		     dependencies = $6, first_topic = $7, updated_at = NOW()
		 WHERE id = $1`,
		c.ID, c.Title, c.Description, c.Level, topics, deps, nullIfEmpty(c.FirstTopic),
	)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("course %s: %w", c.ID, apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteCourse(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	course, err := s.GetCourse(id)
	if err != nil {
		return err
	}
	if len(course.Topics) > 0 {
		if _, err := s.pool.Exec(ctx, `DELETE FROM topics WHERE id = ANY($1)`, course.Topics); err != nil {
			return fmt.Errorf("delete course topics: %w", err)
		}
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCourses() ([]Course, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, courseSelect+` ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		c, err := s.scanCourse(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountCourses() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) AddSubject(courseID, topicID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	probe, err := json.Marshal([]string{topicID})
	if err != nil {
		return fmt.Errorf("marshal subject id: %w", err)
	}
	cmd, err := s.pool.Exec(ctx,
		`UPDATE courses
		 SET topics = topics || $2::jsonb,
		     first_topic = COALESCE(first_topic, $3),
		     updated_at = NOW()
		 WHERE id = $1 AND NOT topics @> $2::jsonb`,
		courseID, string(probe), topicID)
	if err != nil {
		return fmt.Errorf("add subject: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		// Either the course is missing or the subject is already present.
		if _, err := s.GetCourse(courseID); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) SetDependency(courseID, subjectID string, required []string) error {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return err
	}
	if err := ValidatePrerequisites(subjectID, required, func(id string) []string {
		return course.Dependencies[id]
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	reqs, err := json.Marshal(emptyIfNil(required))
	if err != nil {
		return fmt.Errorf("marshal required subjects: %w", err)
	}
	cmd, err := s.pool.Exec(ctx,
		`UPDATE courses
		 SET dependencies = jsonb_set(dependencies, ARRAY[$2], $3::jsonb, true),
		     updated_at = NOW()
		 WHERE id = $1`,
		courseID, subjectID, string(reqs))
	if err != nil {
		return fmt.Errorf("set dependency: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("course %s: %w", courseID, apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CreatePath(p LearningPath) (LearningPath, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if p.Title == "" {
		return LearningPath{}, fmt.Errorf("path title is required: %w", apperr.ErrValidation)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusPublished
	}
	courses, err := json.Marshal(emptyIfNil(p.Courses))
	if err != nil {
		return LearningPath{}, fmt.Errorf("marshal courses: %w", err)
	}
	topics, err := json.Marshal(refIDs(p.Topics))
	if err != nil {
		return LearningPath{}, fmt.Errorf("marshal topics: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO learning_paths (id, title, description, courses, topics, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		p.ID, p.Title, p.Description, courses, topics, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return LearningPath{}, fmt.Errorf("create learning path: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetPath(id string) (*LearningPath, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	return s.scanPath(s.pool.QueryRow(ctx, pathSelect+` WHERE id = $1`, id), id)
}

func (s *PostgresStore) UpdatePath(p LearningPath) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	courses, err := json.Marshal(emptyIfNil(p.Courses))
	if err != nil {
		return fmt.Errorf("marshal courses: %w", err)
	}
	topics, err := json.Marshal(refIDs(p.Topics))
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE learning_paths
		 SET title = $2, description = $3, courses = $4, topics = $5,
		     status = $6, updated_at = NOW()
		 WHERE id = $1`,
		p.ID, p.Title, p.Description, courses, topics, p.Status,
	)
	if err != nil {
		return fmt.Errorf("update learning path: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("learning path %s: %w", p.ID, apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeletePath(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM learning_paths WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete learning path: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("learning path %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListPaths(status string) ([]LearningPath, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := pathSelect + ` ORDER BY title ASC`
	args := []any{}
	if status != "" {
		query = pathSelect + ` WHERE status = $1 ORDER BY title ASC`
		args = append(args, status)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list learning paths: %w", err)
	}
	defer rows.Close()
	return s.collectPaths(rows)
}

func (s *PostgresStore) PathsByIDs(ids []string) ([]LearningPath, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, pathSelect+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("paths by ids: %w", err)
	}
	defer rows.Close()
	return s.collectPaths(rows)
}

func (s *PostgresStore) AddCourseToPath(pathID, courseID string) error {
	if _, err := s.GetCourse(courseID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	probe, _ := json.Marshal([]string{courseID})
	cmd, err := s.pool.Exec(ctx,
		`UPDATE learning_paths
		 SET courses = courses || $2::jsonb, updated_at = NOW()
		 WHERE id = $1 AND NOT courses @> $2::jsonb`,
		pathID, string(probe))
	if err != nil {
		return fmt.Errorf("add course to path: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		if _, err := s.GetPath(pathID); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) RemoveCourseFromPath(pathID, courseID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE learning_paths
		 SET courses = courses - $2, updated_at = NOW()
		 WHERE id = $1`,
		pathID, courseID)
	if err != nil {
		return fmt.Errorf("remove course from path: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("learning path %s: %w", pathID, apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) PathContainingTopic(topicID string) (*LearningPath, error) {
	paths, err := s.ListPaths("")
	if err != nil {
		return nil, err
	}
	for i := range paths {
		for _, ref := range paths[i].Topics {
			if ref.Valid() && ref.ID == topicID {
				return &paths[i], nil
			}
		}
	}
	return nil, fmt.Errorf("no learning path contains topic %s: %w", topicID, apperr.ErrNotFound)
}

const topicSelect = `SELECT id, title, description, content, difficulty, type, status,
       prerequisites, learning_path_id, ord, is_root, resources, creator_id, created_at, updated_at
FROM topics`

const courseSelect = `SELECT id, title, description, level, topics, dependencies, first_topic, created_at, updated_at
FROM courses`

const pathSelect = `SELECT id, title, description, courses, topics, status, created_at, updated_at
FROM learning_paths`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanTopic(row rowScanner, id string) (*Topic, error) {
	var t Topic
	var prereqs, resources []byte
	var pathID, creatorID *string

	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Content, &t.Difficulty, &t.Type,
		&t.Status, &prereqs, &pathID, &t.Order, &t.IsRoot, &resources, &creatorID,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("topic %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("scan topic: %w", err)
	}
	if err := json.Unmarshal(prereqs, &t.Prerequisites); err != nil {
		return nil, fmt.Errorf("unmarshal prerequisites: %w", err)
	}
	if len(resources) > 0 {
		if err := json.Unmarshal(resources, &t.Resources); err != nil {
			return nil, fmt.Errorf("unmarshal resources: %w", err)
		}
	}
	if pathID != nil {
		t.LearningPathID = *pathID
	}
	if creatorID != nil {
		t.CreatorID = *creatorID
	}
	return &t, nil
}

func (s *PostgresStore) collectTopics(rows pgx.Rows) ([]Topic, error) {
	var out []Topic
	for rows.Next() {
		t, err := s.scanTopic(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) scanCourse(row rowScanner, id string) (*Course, error) {
	var c Course
	var topics, deps []byte
	var firstTopic *string

	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Level, &topics, &deps,
		&firstTopic, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("scan course: %w", err)
	}
	if err := json.Unmarshal(topics, &c.Topics); err != nil {
		return nil, fmt.Errorf("unmarshal course topics: %w", err)
	}
	if err := json.Unmarshal(deps, &c.Dependencies); err != nil {
		return nil, fmt.Errorf("unmarshal course dependencies: %w", err)
	}
	if firstTopic != nil {
		c.FirstTopic = *firstTopic
	}
	return &c, nil
}

func (s *PostgresStore) scanPath(row rowScanner, id string) (*LearningPath, error) {
	var p LearningPath
	var courses, topics []byte

	err := row.Scan(&p.ID, &p.Title, &p.Description, &courses, &topics,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("learning path %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("scan learning path: %w", err)
	}
	if err := json.Unmarshal(courses, &p.Courses); err != nil {
		return nil, fmt.Errorf("unmarshal path courses: %w", err)
	}

	// Stored references may be raw id strings, populated objects, or
	// garbage left by older writers; classify each exactly once here.
	var raw []any
	if err := json.Unmarshal(topics, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal path topics: %w", err)
	}
	for _, item := range raw {
		ref := ResolveRef(item)
		if ref.Kind == RefMalformed {
			slog.Warn("skipping malformed topic reference", "path_id", p.ID, "value", fmt.Sprintf("%v", item))
		}
		p.Topics = append(p.Topics, ref)
	}
	return &p, nil
}

func (s *PostgresStore) collectPaths(rows pgx.Rows) ([]LearningPath, error) {
	var out []LearningPath
	for rows.Next() {
		p, err := s.scanPath(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) prereqEdges(ctx context.Context) (map[string][]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, prerequisites FROM topics`)
	if err != nil {
		return nil, fmt.Errorf("load prerequisite edges: %w", err)
	}
	defer rows.Close()

	edges := make(map[string][]string)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan prerequisite edge: %w", err)
		}
		var prereqs []string
		if err := json.Unmarshal(raw, &prereqs); err != nil {
			continue
		}
		edges[id] = prereqs
	}
	return edges, rows.Err()
}

func refIDs(refs []TopicRef) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Valid() {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func emptyMapIfNil(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
