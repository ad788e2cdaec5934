package questdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIdentifier(t *testing.T) {
	testCases := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{name: "trade table", table: "trades_BTC", wantErr: false},
		{name: "bar table", table: "ohlc_M1_ETH", wantErr: false},
		{name: "empty", table: "", wantErr: true},
		{name: "injection", table: "trades_BTC; DROP TABLE x", wantErr: true},
		{name: "quoted", table: `"trades"`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateIdentifier(tc.table)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_ConnString(t *testing.T) {
	cfg := Config{Host: "db", Port: 8812, Database: "qdb", Username: "admin", Password: "quest"}
	assert.Equal(t, "postgres://admin:quest@db:8812/qdb?sslmode=disable", cfg.ConnString())
}
