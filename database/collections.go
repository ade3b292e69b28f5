package database

import (
	"database/sql"
	"errors"
	"fmt"

	"atelier/model"
)

const collectionColumns = `id, slug, name, description, cover_image_url, sort_order, is_active, created_at, updated_at`

func ListCollections(dbtx DBTX, includeHidden bool) ([]model.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections`
	if !includeHidden {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY sort_order, name`

	var collections []model.Collection
	if err := dbtx.Select(&collections, query); err != nil {
		return nil, fmt.Errorf("failed to get all collections: %w", err)
	}
	if collections == nil {
		collections = []model.Collection{}
	}
	return collections, nil
}

func GetCollectionBySlug(dbtx DBTX, slug string) (*model.Collection, error) {
	var c model.Collection
	err := dbtx.Get(&c, `SELECT `+collectionColumns+` FROM collections WHERE slug = ?`, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("collection %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get collection %s: %w", slug, err)
	}
	return &c, nil
}

func GetCollectionByID(dbtx DBTX, id int64) (*model.Collection, error) {
	var c model.Collection
	err := dbtx.Get(&c, `SELECT `+collectionColumns+` FROM collections WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("collection id %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get collection id %d: %w", id, err)
	}
	return &c, nil
}

// UpsertCollection creates the collection when in.ID is zero, otherwise
// updates it.
func UpsertCollection(dbtx DBTX, in *model.CollectionInput) (int64, error) {
	ts := now()
	if in.ID == 0 {
		const q = `
			INSERT INTO collections (slug, name, description, cover_image_url, sort_order, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		res, err := dbtx.Exec(q, in.Slug, in.Name, in.Description, in.CoverImageURL, in.SortOrder, boolToInt(in.IsActive), ts, ts)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("collection slug %s: %w", in.Slug, ErrConflict)
			}
			return 0, fmt.Errorf("CreateCollection failed: %w", err)
		}
		return res.LastInsertId()
	}

	const q = `
		UPDATE collections SET slug = ?, name = ?, description = ?, cover_image_url = ?,
			sort_order = ?, is_active = ?, updated_at = ?
		WHERE id = ?`
	res, err := dbtx.Exec(q, in.Slug, in.Name, in.Description, in.CoverImageURL, in.SortOrder, boolToInt(in.IsActive), ts, in.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("collection slug %s: %w", in.Slug, ErrConflict)
		}
		return 0, fmt.Errorf("UpdateCollection (ID: %d) failed: %w", in.ID, err)
	}
	if err := checkAffected(res, fmt.Sprintf("collection id %d", in.ID)); err != nil {
		return 0, err
	}
	return in.ID, nil
}

// UpsertCollectionBySlug inserts or updates a collection keyed by slug. Used
// by the seed loader.
func UpsertCollectionBySlug(dbtx DBTX, in *model.CollectionInput) (int64, error) {
	ts := now()
	const q = `
		INSERT INTO collections (slug, name, description, cover_image_url, sort_order, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			cover_image_url = excluded.cover_image_url,
			sort_order = excluded.sort_order,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`
	if _, err := dbtx.Exec(q, in.Slug, in.Name, in.Description, in.CoverImageURL, in.SortOrder, boolToInt(in.IsActive), ts, ts); err != nil {
		return 0, fmt.Errorf("UpsertCollectionBySlug (Slug: %s) failed: %w", in.Slug, err)
	}
	var id int64
	if err := dbtx.Get(&id, `SELECT id FROM collections WHERE slug = ?`, in.Slug); err != nil {
		return 0, fmt.Errorf("failed to read back collection %s: %w", in.Slug, err)
	}
	return id, nil
}

func DeleteCollection(dbtx DBTX, id int64) error {
	res, err := dbtx.Exec(`DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection with id %d: %w", id, err)
	}
	return checkAffected(res, fmt.Sprintf("collection id %d", id))
}
