package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lootkit/pickit/internal/rules"
)

// RuleRepo stores the ordered pickit rule list.
type RuleRepo struct {
	db *DB
}

func NewRuleRepo(db *DB) *RuleRepo {
	return &RuleRepo{db: db}
}

// LoadAll returns every rule in configured order.
func (r *RuleRepo) LoadAll(ctx context.Context) ([]rules.Rule, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, location, enabled FROM pickit_rules ORDER BY position, name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []rules.Rule
	for rows.Next() {
		var rule rules.Rule
		if err := rows.Scan(&rule.Name, &rule.Location, &rule.Enabled); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}

// ReplaceAll overwrites the stored list with list, keeping its order.
func (r *RuleRepo) ReplaceAll(ctx context.Context, list []rules.Rule) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM pickit_rules`); err != nil {
			return fmt.Errorf("clear rules: %w", err)
		}
		batch := &pgx.Batch{}
		for i, rule := range list {
			batch.Queue(
				`INSERT INTO pickit_rules (position, name, location, enabled) VALUES ($1, $2, $3, $4)`,
				i, rule.Name, rule.Location, rule.Enabled,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert rules: %w", err)
		}
		return nil
	})
}

// Count returns the number of stored rules.
func (r *RuleRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM pickit_rules`).Scan(&n)
	return n, err
}
