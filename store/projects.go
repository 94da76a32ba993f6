package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/mkallio/manweek/internal/models"
)

// UpsertProject creates or updates a project identified by its
// case-insensitive, trimmed code. An existing project keeps its id and
// archive state; only the name is refreshed.
func (c *Client) UpsertProject(code, name string) (*models.Project, error) {
	display := strings.TrimSpace(code)
	key := models.Canonical(code)

	if key == "" {
		return nil, errEmptyCode
	}

	var project *models.Project

	err := c.withTx(func(tx *sql.Tx) error {
		now := time.Now().Unix()

		existing, err := getProjectTx(tx, `WHERE code_key = ?`, key)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		if err == nil {
			_, err = tx.Exec(
				`UPDATE projects SET name = ?, updated_at = ? WHERE id = ?`,
				strings.TrimSpace(name),
				now,
				existing.ID,
			)
			if err != nil {
				return errStoreUnavailable.WithCause(err)
			}

			existing.Name = strings.TrimSpace(name)
			existing.UpdatedAt = time.Unix(now, 0)
			project = existing

			return nil
		}

		res, err := tx.Exec(
			`INSERT INTO projects (code, code_key, name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			display,
			key,
			strings.TrimSpace(name),
			now,
			now,
		)
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		project = &models.Project{
			ID:        id,
			Code:      display,
			Name:      strings.TrimSpace(name),
			CreatedAt: time.Unix(now, 0),
			UpdatedAt: time.Unix(now, 0),
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// GetProject loads a project by id.
func (c *Client) GetProject(id int64) (*models.Project, error) {
	project, err := c.getProject(`WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, errProjectNotFound.Fmt(id)
	}

	return project, err
}

// GetProjectByCode loads a project by its case-insensitive code.
func (c *Client) GetProjectByCode(code string) (*models.Project, error) {
	project, err := c.getProject(`WHERE code_key = ?`, models.Canonical(code))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return project, err
}

// ListProjects returns projects ordered by code. Archived projects are
// included only on request; archiving never affects existing entries.
func (c *Client) ListProjects(includeArchived bool) ([]models.Project, error) {
	query := `SELECT id, code, name, archived, created_at, updated_at
		FROM projects`

	if !includeArchived {
		query += ` WHERE archived = 0`
	}

	query += ` ORDER BY code_key ASC`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, errStoreUnavailable.WithCause(err)
	}
	defer rows.Close()

	var projects []models.Project

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}

		projects = append(projects, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, errReadRow.WithCause(err)
	}

	return projects, nil
}

// SetProjectArchived flips a project's archive state. The operation is
// reversible and only affects future selection.
func (c *Client) SetProjectArchived(id int64, archived bool) error {
	return c.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE projects SET archived = ?, updated_at = ? WHERE id = ?`,
			archived,
			time.Now().Unix(),
			id,
		)
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		if n == 0 {
			return errProjectNotFound.Fmt(id)
		}

		return nil
	})
}

func (c *Client) getProject(
	where string,
	args ...any,
) (*models.Project, error) {
	row := c.db.QueryRow(
		`SELECT id, code, name, archived, created_at, updated_at
		FROM projects `+where,
		args...,
	)

	return scanProject(row)
}

func getProjectTx(
	tx *sql.Tx,
	where string,
	args ...any,
) (*models.Project, error) {
	row := tx.QueryRow(
		`SELECT id, code, name, archived, created_at, updated_at
		FROM projects `+where,
		args...,
	)

	return scanProject(row)
}

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p        models.Project
		created  int64
		updated  int64
		archived int
	)

	err := row.Scan(&p.ID, &p.Code, &p.Name, &archived, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, err
	}

	if err != nil {
		return nil, errReadRow.WithCause(err)
	}

	p.Archived = archived != 0
	p.CreatedAt = time.Unix(created, 0)
	p.UpdatedAt = time.Unix(updated, 0)

	return &p, nil
}
