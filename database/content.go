package database

import (
	"fmt"

	"atelier/model"

	"github.com/jmoiron/sqlx"
)

func GetAllContent(dbtx DBTX) ([]model.SiteContent, error) {
	var content []model.SiteContent
	if err := dbtx.Select(&content, `SELECT content_key, content_value, updated_at FROM site_content ORDER BY content_key`); err != nil {
		return nil, fmt.Errorf("failed to get site content: %w", err)
	}
	if content == nil {
		content = []model.SiteContent{}
	}
	return content, nil
}

// GetContentMap returns homepage copy keyed by content key.
func GetContentMap(dbtx DBTX) (map[string]string, error) {
	content, err := GetAllContent(dbtx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(content))
	for _, c := range content {
		m[c.Key] = c.Value
	}
	return m, nil
}

func UpsertContentInTx(tx *sqlx.Tx, values map[string]string) error {
	const q = `
		INSERT INTO site_content (content_key, content_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(content_key) DO UPDATE SET
			content_value = excluded.content_value,
			updated_at = excluded.updated_at`
	ts := now()
	for k, v := range values {
		if _, err := tx.Exec(q, k, v, ts); err != nil {
			return fmt.Errorf("UpsertContentInTx (Key: %s) failed: %w", k, err)
		}
	}
	return nil
}

func DeleteContent(dbtx DBTX, key string) error {
	res, err := dbtx.Exec(`DELETE FROM site_content WHERE content_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete content %s: %w", key, err)
	}
	return checkAffected(res, "content "+key)
}
