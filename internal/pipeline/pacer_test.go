package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPacerBounds(t *testing.T) {
	p := NewPacer(200*time.Millisecond, 300*time.Millisecond)
	for i := 0; i < 200; i++ {
		d := p.Next()
		require.GreaterOrEqual(t, d, 200*time.Millisecond)
		require.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func TestPacerDegenerateRange(t *testing.T) {
	p := NewPacer(-time.Second, -2*time.Second)
	require.Zero(t, p.Next())

	called := false
	p.sleep = func(time.Duration) { called = true }
	p.Wait()
	require.False(t, called)

	p = NewPacer(time.Second, 0)
	require.Equal(t, time.Second, p.Next())
}
