package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"mangaledger/pkg/database"
	"mangaledger/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) ListRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM roles
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var out []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// GetRoleByName resolves a role by exact name; first match wins when
// duplicates exist. Returns nil when there is none.
func (r *Repo) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM roles
		WHERE name = ?
		LIMIT 1
	`, name)

	var role models.Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return &role, nil
}

// CreateRole exists for the out-of-band seeding path (admin CLI); the
// service itself never writes roles.
func (r *Repo) CreateRole(ctx context.Context, name, description string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO roles (name, description) VALUES (?, ?)
	`, name, description)
	if err != nil {
		return 0, fmt.Errorf("create role: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create role id: %w", err)
	}
	return id, nil
}

func (r *Repo) ListTitles(ctx context.Context) ([]models.Title, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, catalog_id, native_name, localized_name, original_name
		FROM titles
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	var out []models.Title
	for rows.Next() {
		var t models.Title
		if err := rows.Scan(&t.ID, &t.CatalogID, &t.NativeName, &t.LocalizedName, &t.OriginalName); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// GetTitleByName resolves a title by exact native or original name;
// first match wins when duplicates exist.
func (r *Repo) GetTitleByName(ctx context.Context, name string) (*models.Title, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, catalog_id, native_name, localized_name, original_name
		FROM titles
		WHERE native_name = ? OR original_name = ?
		LIMIT 1
	`, name, name)

	var t models.Title
	if err := row.Scan(&t.ID, &t.CatalogID, &t.NativeName, &t.LocalizedName, &t.OriginalName); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get title by name: %w", err)
	}
	return &t, nil
}

// LatestChapterForTitle computes the most recent ledger entry for a
// title. There is no stored back-reference to go stale; this query is
// the source of truth.
func (r *Repo) LatestChapterForTitle(ctx context.Context, titleID int64) (*models.ChapterRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, title_id, chapter, role_id, contributor_id
		FROM chapter_records
		WHERE title_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, titleID)

	var rec models.ChapterRecord
	if err := row.Scan(&rec.ID, &rec.TitleID, &rec.Chapter, &rec.RoleID, &rec.ContributorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest chapter: %w", err)
	}
	return &rec, nil
}

// RecordChapter resolves the title (by native or original name), the
// role (by name) and the contributor (by external id), then inserts
// one ledger entry and bumps the contributor's activity timestamp.
// Everything runs in one transaction so a failed resolution leaves no
// partial state. Duplicate submissions are allowed on purpose.
func (r *Repo) RecordChapter(ctx context.Context, titleQuery, roleName string, chapter float64, contributorExternalID string) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record chapter: %w", err)
	}
	defer tx.Rollback()

	var titleID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM titles
		WHERE native_name = ? OR original_name = ?
		LIMIT 1
	`, titleQuery, titleQuery).Scan(&titleID)
	if err == sql.ErrNoRows {
		return 0, &NotFoundError{Entity: "title", Query: titleQuery}
	}
	if err != nil {
		return 0, fmt.Errorf("resolve title: %w", err)
	}

	var roleID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM roles WHERE name = ? LIMIT 1
	`, roleName).Scan(&roleID)
	if err == sql.ErrNoRows {
		return 0, &NotFoundError{Entity: "role", Query: roleName}
	}
	if err != nil {
		return 0, fmt.Errorf("resolve role: %w", err)
	}

	var contributorID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM contributors WHERE external_id = ?
	`, contributorExternalID).Scan(&contributorID)
	if err == sql.ErrNoRows {
		return 0, &NotFoundError{Entity: "contributor", Query: contributorExternalID}
	}
	if err != nil {
		return 0, fmt.Errorf("resolve contributor: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO chapter_records (title_id, chapter, role_id, contributor_id)
		VALUES (?, ?, ?, ?)
	`, titleID, chapter, roleID, contributorID)
	if err != nil {
		return 0, database.WrapWriteError("insert chapter record", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("chapter record id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE contributors SET last_active_at = CURRENT_TIMESTAMP WHERE id = ?
	`, contributorID); err != nil {
		return 0, fmt.Errorf("bump contributor activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record chapter: %w", err)
	}
	return id, nil
}

// ListChapters returns one page of the ledger in insertion order,
// joined with the display fields. Pages past the end are an empty
// list, not an error.
func (r *Repo) ListChapters(ctx context.Context, page, perPage int) ([]models.ChapterEntry, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	rows, err := r.DB.QueryContext(ctx, `
		SELECT cr.id,
		       CASE WHEN t.native_name != '' THEN t.native_name ELSE t.original_name END,
		       cr.chapter, ro.name, co.nickname
		FROM chapter_records cr
		JOIN titles t ON t.id = cr.title_id
		JOIN roles ro ON ro.id = cr.role_id
		JOIN contributors co ON co.id = cr.contributor_id
		ORDER BY cr.id ASC
		LIMIT ? OFFSET ?
	`, perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	out := make([]models.ChapterEntry, 0, perPage)
	for rows.Next() {
		var e models.ChapterEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.Chapter, &e.Role, &e.Contributor); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
