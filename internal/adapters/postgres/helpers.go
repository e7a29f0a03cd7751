package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// conn returns db when the caller supplied one (usually a transaction), else the pool.
func conn(db ports.DBTX, pool *pgxpool.Pool) ports.DBTX {
	if db != nil {
		return db
	}
	return pool
}

func statusStrings(statuses []domain.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
