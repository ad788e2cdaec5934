package trade

import (
	"context"
	"fmt"
	"strings"

	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
	"github.com/muhammadchandra19/market-signal/pkg/questdb"
)

// Repository represents the repository for trade data.
type Repository struct {
	client    questdb.QuestDBClient
	batchSize int
}

var _ tradev1.TradeRepository = (*Repository)(nil)

// NewRepository creates a new trade repository.
func NewRepository(client questdb.QuestDBClient) *Repository {
	return &Repository{
		client:    client,
		batchSize: questdb.DefaultInsertBatchSize,
	}
}

// ScanRange returns at most limit trades starting at offset, in (time, id) order.
func (r *Repository) ScanRange(ctx context.Context, filter tradev1.RangeFilter, limit, offset int) ([]tradev1.Trade, error) {
	table := TableName(filter.Symbol)
	if err := questdb.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	where, args := rangeClause(filter)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY time, id LIMIT $%d, $%d",
		strings.Join(columns, ", "), table, where, len(args)+1, len(args)+2)
	// QuestDB LIMIT lo, hi selects rows in [lo, hi).
	args = append(args, offset, offset+limit)

	rows, err := r.client.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]tradev1.Trade, 0, limit)
	for rows.Next() {
		var rw row
		if err := rows.Scan(&rw.ID, &rw.Price, &rw.Qty, &rw.BaseQty, &rw.Time, &rw.IsBuyerMaker); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, rw.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return trades, nil
}

// Count returns the number of trades matching filter.
func (r *Repository) Count(ctx context.Context, filter tradev1.RangeFilter) (int, error) {
	table := TableName(filter.Symbol)
	if err := questdb.ValidateIdentifier(table); err != nil {
		return 0, err
	}

	where, args := rangeClause(filter)
	query := fmt.Sprintf("SELECT count(*) FROM %s%s", table, where)

	var total int64
	if err := r.client.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}

	return int(total), nil
}

// StoreBatch inserts trades into the symbol's table. Used by ingestion only.
func (r *Repository) StoreBatch(ctx context.Context, symbol string, trades []tradev1.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	err := questdb.InsertBatch(ctx, r.client, TableName(symbol), columns, len(trades), r.batchSize, func(i int) []any {
		return values(trades[i])
	})
	if err != nil {
		return fmt.Errorf("failed to store trades: %w", err)
	}

	return nil
}

// rangeClause builds the time predicate. A zero bound is left open.
func rangeClause(filter tradev1.RangeFilter) (string, []any) {
	var conds []string
	args := []any{}

	if !filter.Start.IsZero() {
		args = append(args, filter.Start.UnixMilli())
		conds = append(conds, fmt.Sprintf("time >= $%d", len(args)))
	}

	if !filter.End.IsZero() {
		args = append(args, filter.End.UnixMilli())
		conds = append(conds, fmt.Sprintf("time < $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
