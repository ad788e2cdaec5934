package signal

import (
	"context"
	"errors"
	"testing"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	"github.com/muhammadchandra19/market-signal/internal/domain/bar/v1/mock"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestBarSink(t *testing.T) {
	bars := []barv1.Bar{ohlc(0, "100", "101", 2), ohlc(1, "101", "101", 1)}

	testCases := []struct {
		name     string
		export   bool
		mockFn   func(repo *mock.MockBarRepository, exporter *mock.MockExporter)
		assertFn func(t *testing.T, s *BarSink, consumeErr, finalizeErr error)
	}{
		{
			name:   "store and export",
			export: true,
			mockFn: func(repo *mock.MockBarRepository, exporter *mock.MockExporter) {
				gomock.InOrder(
					repo.EXPECT().StoreBatch(gomock.Any(), bars).Return(nil),
					exporter.EXPECT().Write(bars).Return(nil),
					exporter.EXPECT().Close().Return(nil),
				)
			},
			assertFn: func(t *testing.T, s *BarSink, consumeErr, finalizeErr error) {
				assert.NoError(t, consumeErr)
				assert.NoError(t, finalizeErr)
				assert.Equal(t, 2, s.Stored())
			},
		},
		{
			name: "store only",
			mockFn: func(repo *mock.MockBarRepository, exporter *mock.MockExporter) {
				repo.EXPECT().StoreBatch(gomock.Any(), bars).Return(nil)
			},
			assertFn: func(t *testing.T, s *BarSink, consumeErr, finalizeErr error) {
				assert.NoError(t, consumeErr)
				assert.NoError(t, finalizeErr)
			},
		},
		{
			name:   "store fails",
			export: true,
			mockFn: func(repo *mock.MockBarRepository, exporter *mock.MockExporter) {
				repo.EXPECT().StoreBatch(gomock.Any(), bars).Return(errors.New("table busy"))
				exporter.EXPECT().Close().Return(nil)
			},
			assertFn: func(t *testing.T, s *BarSink, consumeErr, finalizeErr error) {
				assert.EqualError(t, consumeErr, "table busy")
				assert.NoError(t, finalizeErr)
				assert.Zero(t, s.Stored())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mock.NewMockBarRepository(ctrl)
			exporter := mock.NewMockExporter(ctrl)
			tc.mockFn(repo, exporter)

			var exp barv1.Exporter
			if tc.export {
				exp = exporter
			}

			ctx := context.Background()
			s := NewBarSink(repo, exp, logger.NewNop())
			consumeErr := s.ConsumeBars(ctx, bars)
			finalizeErr := s.Finalize(ctx)
			tc.assertFn(t, s, consumeErr, finalizeErr)
		})
	}
}
