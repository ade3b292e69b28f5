package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Sequence describes a code_sequences entry and the column it numbers.
type Sequence struct {
	Name    string
	Prefix  string
	Padding int
	Table   string
	Column  string
}

var (
	OrderNumberSequence = Sequence{Name: "ORD", Prefix: "PED", Padding: 6, Table: "orders", Column: "order_number"}
	SKUSequence         = Sequence{Name: "SKU", Prefix: "SKU", Padding: 5, Table: "products", Column: "sku"}
)

func NextSequenceInTx(tx *sqlx.Tx, seq Sequence) (string, error) {
	var lastNo int
	err := tx.Get(&lastNo, "SELECT last_no FROM code_sequences WHERE name = ?", seq.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("sequence '%s' not found", seq.Name)
		}
		return "", fmt.Errorf("failed to get sequence '%s': %w", seq.Name, err)
	}

	newNo := lastNo + 1
	_, err = tx.Exec(`UPDATE code_sequences SET last_no = ? WHERE name = ?`, newNo, seq.Name)
	if err != nil {
		return "", fmt.Errorf("failed to update sequence '%s': %w", seq.Name, err)
	}

	format := fmt.Sprintf("%s%%0%dd", seq.Prefix, seq.Padding)
	newCode := fmt.Sprintf(format, newNo)
	zap.S().Debugf("[Sequence] Auto-incrementing '%s'. Fetched last_no: %d. Generated new code: %s", seq.Name, lastNo, newCode)
	return newCode, nil
}

// InitializeSequenceFromMax moves the sequence to the highest prefixed code
// already stored, so codes inserted by imports are never reissued.
func InitializeSequenceFromMax(tx *sqlx.Tx, seq Sequence) error {
	var maxCode sql.NullString
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s LIKE ? ORDER BY length(%s) DESC, %s DESC LIMIT 1",
		seq.Column, seq.Table, seq.Column, seq.Column, seq.Column)
	err := tx.Get(&maxCode, query, seq.Prefix+"%")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	maxNum := 0
	if maxCode.Valid && strings.HasPrefix(maxCode.String, seq.Prefix) {
		maxNum, _ = strconv.Atoi(strings.TrimPrefix(maxCode.String, seq.Prefix))
	}

	var current int
	if err := tx.Get(&current, `SELECT last_no FROM code_sequences WHERE name = ?`, seq.Name); err != nil {
		return fmt.Errorf("failed to get sequence '%s': %w", seq.Name, err)
	}
	if current >= maxNum {
		return nil
	}

	zap.S().Infof("[Sequence] Setting '%s' last_no to %d", seq.Name, maxNum)
	_, err = tx.Exec(`UPDATE code_sequences SET last_no = ? WHERE name = ?`, maxNum, seq.Name)
	return err
}
