package migration

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/muhammadchandra19/market-signal/pkg/questdb/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	appliedQuery = "SELECT id FROM schema_migrations WHERE scope = $1"
	recordQuery  = "INSERT INTO schema_migrations VALUES ($1, $2, $3, now())"
	removeQuery  = "DELETE FROM schema_migrations WHERE id = $1 AND scope = $2"
)

var testSource = fstest.MapFS{
	"20240101000000_create_trades.up.sql":   {Data: []byte("CREATE TABLE trades_${SYMBOL} (id LONG);\n")},
	"20240101000000_create_trades.down.sql": {Data: []byte("DROP TABLE trades_${SYMBOL};")},
	"20240101000100_create_bars.up.sql":     {Data: []byte("CREATE TABLE ${BAR_TABLE} (open DOUBLE);")},
	"README.md":                             {Data: []byte("not a migration")},
}

var testConfig = Config{
	Vars:  map[string]string{"SYMBOL": "BTC", "BAR_TABLE": "bars_BTC"},
	Scope: "BTC",
}

func expectApplied(rows *mock.MockRowsInterface, ids ...string) {
	for _, id := range ids {
		rows.EXPECT().Next().Return(true)
		rows.EXPECT().Scan(gomock.Any()).DoAndReturn(func(dest ...any) error {
			*dest[0].(*string) = id
			return nil
		})
	}
	rows.EXPECT().Next().Return(false)
	rows.EXPECT().Err().Return(nil)
	rows.EXPECT().Close()
}

func TestRunner_LoadMigrations(t *testing.T) {
	testCases := []struct {
		name     string
		config   Config
		assertFn func(t *testing.T, migrations []Migration, err error)
	}{
		{
			name:   "ordered and expanded",
			config: testConfig,
			assertFn: func(t *testing.T, migrations []Migration, err error) {
				require.NoError(t, err)
				require.Len(t, migrations, 2)
				assert.Equal(t, "20240101000000_create_trades", migrations[0].ID)
				assert.Equal(t, "create_trades", migrations[0].Name)
				assert.Equal(t, 2024, migrations[0].Timestamp.Year())
				assert.Equal(t, "CREATE TABLE trades_BTC (id LONG);", migrations[0].UpSQL)
				assert.Equal(t, "DROP TABLE trades_BTC;", migrations[0].DownSQL)
				assert.Equal(t, "CREATE TABLE bars_BTC (open DOUBLE);", migrations[1].UpSQL)
				assert.Empty(t, migrations[1].DownSQL)
			},
		},
		{
			name:   "undefined variable",
			config: Config{Vars: map[string]string{"SYMBOL": "BTC"}, Scope: "BTC"},
			assertFn: func(t *testing.T, migrations []Migration, err error) {
				assert.ErrorContains(t, err, "BAR_TABLE")
			},
		},
		{
			name:   "unsafe variable",
			config: Config{Vars: map[string]string{"SYMBOL": "BTC; DROP", "BAR_TABLE": "bars"}, Scope: "BTC"},
			assertFn: func(t *testing.T, migrations []Migration, err error) {
				assert.ErrorContains(t, err, "invalid table name")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			runner := NewRunner(nil, testSource, tc.config, logger.NewNop())
			migrations, err := runner.LoadMigrations()
			tc.assertFn(t, migrations, err)
		})
	}
}

func TestRunner_MigrateUp(t *testing.T) {
	testCases := []struct {
		name     string
		steps    int
		mockFn   func(m *mock.MockQuestDBClient, rows *mock.MockRowsInterface)
		assertFn func(t *testing.T, applied int, err error)
	}{
		{
			name: "applies pending only",
			mockFn: func(m *mock.MockQuestDBClient, rows *mock.MockRowsInterface) {
				m.EXPECT().Query(gomock.Any(), appliedQuery, "BTC").Return(rows, nil)
				expectApplied(rows, "20240101000000_create_trades")
				m.EXPECT().Exec(gomock.Any(), "CREATE TABLE bars_BTC (open DOUBLE);").Return(nil)
				m.EXPECT().Exec(gomock.Any(), recordQuery, "20240101000100_create_bars", "create_bars", "BTC").Return(nil)
			},
			assertFn: func(t *testing.T, applied int, err error) {
				require.NoError(t, err)
				assert.Equal(t, 1, applied)
			},
		},
		{
			name:  "limited by steps",
			steps: 1,
			mockFn: func(m *mock.MockQuestDBClient, rows *mock.MockRowsInterface) {
				m.EXPECT().Query(gomock.Any(), appliedQuery, "BTC").Return(rows, nil)
				expectApplied(rows)
				m.EXPECT().Exec(gomock.Any(), "CREATE TABLE trades_BTC (id LONG);").Return(nil)
				m.EXPECT().Exec(gomock.Any(), recordQuery, "20240101000000_create_trades", "create_trades", "BTC").Return(nil)
			},
			assertFn: func(t *testing.T, applied int, err error) {
				require.NoError(t, err)
				assert.Equal(t, 1, applied)
			},
		},
		{
			name: "statement fails",
			mockFn: func(m *mock.MockQuestDBClient, rows *mock.MockRowsInterface) {
				m.EXPECT().Query(gomock.Any(), appliedQuery, "BTC").Return(rows, nil)
				expectApplied(rows)
				m.EXPECT().Exec(gomock.Any(), "CREATE TABLE trades_BTC (id LONG);").Return(errors.New("table busy"))
			},
			assertFn: func(t *testing.T, applied int, err error) {
				assert.ErrorContains(t, err, "table busy")
				assert.Zero(t, applied)
			},
		},
		{
			name: "applied set unavailable",
			mockFn: func(m *mock.MockQuestDBClient, rows *mock.MockRowsInterface) {
				m.EXPECT().Query(gomock.Any(), appliedQuery, "BTC").Return(nil, errors.New("connection refused"))
			},
			assertFn: func(t *testing.T, applied int, err error) {
				assert.ErrorContains(t, err, "connection refused")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock.NewMockQuestDBClient(ctrl)
			rows := mock.NewMockRowsInterface(ctrl)
			tc.mockFn(client, rows)

			runner := NewRunner(client, testSource, testConfig, logger.NewNop())
			applied, err := runner.MigrateUp(context.Background(), tc.steps)
			tc.assertFn(t, applied, err)
		})
	}
}

func TestRunner_MigrateDown(t *testing.T) {
	testCases := []struct {
		name     string
		steps    int
		mockFn   func(m *mock.MockQuestDBClient, rows *mock.MockRowsInterface)
		assertFn func(t *testing.T, reverted int, err error)
	}{
		{
			name:  "reverts latest applied",
			steps: 1,
			mockFn: func(m *mock.MockQuestDBClient, rows *mock.MockRowsInterface) {
				m.EXPECT().Query(gomock.Any(), appliedQuery, "BTC").Return(rows, nil)
				expectApplied(rows, "20240101000000_create_trades")
				m.EXPECT().Exec(gomock.Any(), "DROP TABLE trades_BTC;").Return(nil)
				m.EXPECT().Exec(gomock.Any(), removeQuery, "20240101000000_create_trades", "BTC").Return(nil)
			},
			assertFn: func(t *testing.T, reverted int, err error) {
				require.NoError(t, err)
				assert.Equal(t, 1, reverted)
			},
		},
		{
			name:  "missing down statement",
			steps: 1,
			mockFn: func(m *mock.MockQuestDBClient, rows *mock.MockRowsInterface) {
				m.EXPECT().Query(gomock.Any(), appliedQuery, "BTC").Return(rows, nil)
				expectApplied(rows, "20240101000000_create_trades", "20240101000100_create_bars")
			},
			assertFn: func(t *testing.T, reverted int, err error) {
				assert.ErrorContains(t, err, "cannot revert")
				assert.Zero(t, reverted)
			},
		},
		{
			name:   "steps required",
			steps:  0,
			mockFn: func(m *mock.MockQuestDBClient, rows *mock.MockRowsInterface) {},
			assertFn: func(t *testing.T, reverted int, err error) {
				assert.ErrorContains(t, err, "steps must be greater than 0")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock.NewMockQuestDBClient(ctrl)
			rows := mock.NewMockRowsInterface(ctrl)
			tc.mockFn(client, rows)

			runner := NewRunner(client, testSource, testConfig, logger.NewNop())
			reverted, err := runner.MigrateDown(context.Background(), tc.steps)
			tc.assertFn(t, reverted, err)
		})
	}
}
