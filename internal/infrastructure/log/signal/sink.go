package signal

import (
	"context"
	"io"
	"os"
	"time"

	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink prints one bare line per point. It uses its own zap core with only a
// message key so the output stays machine-readable next to the service log.
type Sink struct {
	out  logger.Interface
	sync bool
}

var _ signalv1.Sink = (*Sink)(nil)

// NewSink creates a sink writing to w.
func NewSink(w io.Writer) *Sink {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey: "msg",
			LineEnding: zapcore.DefaultLineEnding,
		}),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.DebugLevel,
	)

	return &Sink{out: logger.NewFromZap(zap.New(core)), sync: syncable(w)}
}

// syncable reports whether fsync is meaningful for w. Pipes and terminals
// reject it with EINVAL.
func syncable(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	info, err := f.Stat()
	return err == nil && info.Mode().IsRegular()
}

// Publish prints the points in order.
func (s *Sink) Publish(ctx context.Context, signal string, points []signalv1.Point, now time.Time) error {
	for _, p := range points {
		s.out.Info(p.Line(now))
	}
	return nil
}

// Close flushes buffered output to a regular file. Other writers are left
// alone.
func (s *Sink) Close() error {
	if !s.sync {
		return nil
	}
	return s.out.Sync()
}
