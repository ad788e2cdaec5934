package bar

import (
	"context"
	"fmt"
	"strings"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
	"github.com/muhammadchandra19/market-signal/pkg/questdb"
)

// Repository represents the repository for precomputed bars.
type Repository struct {
	client    questdb.QuestDBClient
	tables    Tables
	batchSize int
}

var _ barv1.BarRepository = (*Repository)(nil)

// NewRepository creates a new bar repository.
func NewRepository(client questdb.QuestDBClient, tables Tables) *Repository {
	return &Repository{
		client:    client,
		tables:    tables,
		batchSize: questdb.DefaultInsertBatchSize,
	}
}

// ScanRange returns at most limit bars starting at offset, ordered by time_start.
func (r *Repository) ScanRange(ctx context.Context, filter tradev1.RangeFilter, limit, offset int) ([]barv1.Bar, error) {
	table := r.tables.ReadPrefix + filter.Symbol
	if err := questdb.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	where, args := rangeClause(filter)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY time_start LIMIT $%d, $%d",
		strings.Join(columns, ", "), table, where, len(args)+1, len(args)+2)
	args = append(args, offset, offset+limit)

	rows, err := r.client.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	bars := make([]barv1.Bar, 0, limit)
	for rows.Next() {
		var rw row
		if err := rows.Scan(&rw.TimeStart, &rw.TimeEnd, &rw.Open, &rw.High, &rw.Low, &rw.Close, &rw.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, rw.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return bars, nil
}

// Count returns the number of bars matching filter.
func (r *Repository) Count(ctx context.Context, filter tradev1.RangeFilter) (int, error) {
	table := r.tables.ReadPrefix + filter.Symbol
	if err := questdb.ValidateIdentifier(table); err != nil {
		return 0, err
	}

	where, args := rangeClause(filter)

	var total int64
	if err := r.client.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s%s", table, where), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count bars: %w", err)
	}

	return int(total), nil
}

// EnsureTable creates the write table if it does not exist yet.
func (r *Repository) EnsureTable(ctx context.Context) error {
	if err := questdb.ValidateIdentifier(r.tables.Write); err != nil {
		return err
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s) TIMESTAMP(time_start) PARTITION BY DAY",
		r.tables.Write, strings.Join(columnTypes, ", "))
	if err := r.client.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create bar table: %w", err)
	}

	return nil
}

// StoreBatch inserts bars into the write table.
func (r *Repository) StoreBatch(ctx context.Context, bars []barv1.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	err := questdb.InsertBatch(ctx, r.client, r.tables.Write, columns, len(bars), r.batchSize, func(i int) []any {
		return values(bars[i])
	})
	if err != nil {
		return fmt.Errorf("failed to store bars: %w", err)
	}

	return nil
}

func rangeClause(filter tradev1.RangeFilter) (string, []any) {
	var conds []string
	args := []any{}

	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		conds = append(conds, fmt.Sprintf("time_start >= $%d", len(args)))
	}

	if !filter.End.IsZero() {
		args = append(args, filter.End)
		conds = append(conds, fmt.Sprintf("time_start < $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
