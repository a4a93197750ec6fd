// Package postgres provides a PostgreSQL-backed project and tag store.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/shared/utils"
	"github.com/fastcode/fastshell/internal/shell/collab"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the SQLSTATE of a unique constraint failure.
const uniqueViolation = "23505"

// Store is a PostgreSQL project store.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

var _ collab.ProjectStore = (*Store)(nil)

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(db, log), nil
}

// New wraps an open database.
func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("schema applied")
	return nil
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]collab.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, repository_name, user_id FROM projects
		 WHERE user_id = $1 ORDER BY created_at, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	out := []collab.Project{}
	for rows.Next() {
		var p collab.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.RepositoryName, &p.UserID); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	for i, p := range out {
		ids[i] = p.ID
	}
	tags, err := s.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Tags = tags[out[i].ID]
	}
	return out, nil
}

func (s *Store) CreateProject(ctx context.Context, p collab.Project) (collab.Project, error) {
	if err := utils.ValidateName(p.Name, "project name"); err != nil {
		return collab.Project{}, collab.Reject("create_project", "Invalid project name")
	}
	p.ID = uuid.NewString()
	p.Tags = nil
	if p.RepositoryName == "" {
		p.RepositoryName = p.ID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, repository_name, user_id) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.RepositoryName, p.UserID)
	if isUniqueViolation(err) {
		return collab.Project{}, collab.Reject("create_project", "A project named "+p.Name+" already exists")
	}
	if err != nil {
		return collab.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (s *Store) ListTags(ctx context.Context) ([]collab.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, user_can_use FROM tags ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	out := []collab.Tag{}
	for rows.Next() {
		var t collab.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.UserCanUse); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateTag(ctx context.Context, name string, userCanUse bool) (collab.Tag, error) {
	if err := utils.ValidateTag(name); err != nil {
		return collab.Tag{}, collab.Reject("create_tag", "Invalid tag name")
	}
	t := collab.Tag{ID: uuid.NewString(), Name: name, UserCanUse: userCanUse}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (id, name, user_can_use) VALUES ($1, $2, $3)`, t.ID, t.Name, t.UserCanUse)
	if isUniqueViolation(err) {
		return collab.Tag{}, collab.Reject("create_tag", "Tag "+name+" already exists")
	}
	if err != nil {
		return collab.Tag{}, fmt.Errorf("insert tag: %w", err)
	}
	return t, nil
}

func (s *Store) TagProject(ctx context.Context, projectID, tagName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID).Scan(&exists); err != nil {
		return fmt.Errorf("lookup project: %w", err)
	}
	if !exists {
		return collab.Reject("tag_project", "Project not found")
	}

	var tagID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = $1`, tagName).Scan(&tagID)
	if errors.Is(err, sql.ErrNoRows) {
		return collab.Reject("tag_project", "Tag "+tagName+" not found")
	}
	if err != nil {
		return fmt.Errorf("lookup tag: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO project_tags (project_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		projectID, tagID); err != nil {
		return fmt.Errorf("tag project: %w", err)
	}
	return tx.Commit()
}

// tagsFor returns the tag names of each project in projectIDs.
func (s *Store) tagsFor(ctx context.Context, projectIDs []string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pt.project_id, t.name FROM project_tags pt
		 JOIN tags t ON t.id = pt.tag_id
		 WHERE pt.project_id = ANY($1) ORDER BY t.name`, pq.Array(projectIDs))
	if err != nil {
		return nil, fmt.Errorf("query project tags: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string, len(projectIDs))
	for rows.Next() {
		var projectID, name string
		if err := rows.Scan(&projectID, &name); err != nil {
			return nil, fmt.Errorf("scan project tag: %w", err)
		}
		out[projectID] = append(out[projectID], name)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
