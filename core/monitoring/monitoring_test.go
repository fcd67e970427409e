package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMonitor struct {
	errs    []error
	tags    []map[string]string
	panics  []any
	flushes int
}

func (f *fakeMonitor) CaptureException(err error, tags map[string]string) {
	f.errs = append(f.errs, err)
	f.tags = append(f.tags, tags)
}
func (f *fakeMonitor) CapturePanic(v any)  { f.panics = append(f.panics, v) }
func (f *fakeMonitor) Flush(time.Duration) { f.flushes++ }

func TestCaptureException(t *testing.T) {
	f := &fakeMonitor{}
	Init(f)
	defer Init(nil)

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"command": "optimize"})
	require.Len(t, f.errs, 1)
	assert.EqualError(t, f.errs[0], "boom")
	assert.Equal(t, "optimize", f.tags[0]["command"])

	Flush(time.Second)
	assert.Equal(t, 1, f.flushes)
}

func TestRecover(t *testing.T) {
	f := &fakeMonitor{}
	Init(f)
	defer Init(nil)

	assert.PanicsWithValue(t, "bad", func() {
		defer Recover()
		panic("bad")
	})
	require.Len(t, f.panics, 1)
	assert.Equal(t, "bad", f.panics[0])
	assert.Equal(t, 1, f.flushes)
}

func TestNopByDefault(t *testing.T) {
	Init(nil)
	assert.NotPanics(t, func() {
		CaptureException(errors.New("x"), nil)
		Flush(0)
	})
}
