package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	"github.com/lorrc/ticket-reports/internal/core/ports"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	rows, err := dbFrom(ctx, r.pool).Query(ctx, "SELECT name, role FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		var u domain.User
		err := row.Scan(&u.Name, &u.Role)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect users: %w", err)
	}
	return users, nil
}

// ReplaceAll swaps the stored users for the given ones. Users with an
// unknown role or a duplicate name are skipped.
func (r *UserRepository) ReplaceAll(ctx context.Context, users []domain.User) (int64, error) {
	db := dbFrom(ctx, r.pool)

	if _, err := db.Exec(ctx, "DELETE FROM users"); err != nil {
		return 0, fmt.Errorf("clear users: %w", err)
	}

	seen := make(map[string]bool, len(users))
	rows := make([][]any, 0, len(users))
	for _, u := range users {
		if u.Name == "" || !u.Role.IsValid() || seen[u.Name] {
			continue
		}
		seen[u.Name] = true
		rows = append(rows, []any{u.Name, string(u.Role)})
	}

	n, err := db.CopyFrom(ctx, pgx.Identifier{"users"}, []string{"name", "role"}, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy users: %w", err)
	}
	return n, nil
}
