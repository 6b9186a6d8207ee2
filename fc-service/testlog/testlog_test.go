package testlog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/log"
)

type recorder struct {
	lines []string
}

func (r *recorder) Logf(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *recorder) Helper() {}

func TestLogger(t *testing.T) {
	rec := &recorder{}
	lgr := Logger(rec, log.LevelInfo)
	lgr.Debug("filtered")
	lgr.Info("first", "a", 1)
	lgr.New("component", "sync").Warn("second")

	require.Len(t, rec.lines, 2)
	require.Contains(t, rec.lines[0], "first")
	require.Contains(t, rec.lines[0], "a=1")
	require.Contains(t, rec.lines[1], "second")
	require.Contains(t, rec.lines[1], "component=sync")
}
