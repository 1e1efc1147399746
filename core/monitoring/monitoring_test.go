package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingMonitor struct {
	errs    []error
	tags    []map[string]string
	panics  []any
	flushes int
}

func (m *recordingMonitor) CaptureException(err error, tags map[string]string) {
	m.errs = append(m.errs, err)
	m.tags = append(m.tags, tags)
}

func (m *recordingMonitor) CapturePanic(v any) { m.panics = append(m.panics, v) }

func (m *recordingMonitor) Flush(time.Duration) { m.flushes++ }

func TestCaptureException(t *testing.T) {
	m := &recordingMonitor{}
	Init(m)
	defer Init(nil)

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"vehicle": "t1"})
	assert.Len(t, m.errs, 1)
	assert.Equal(t, "t1", m.tags[0]["vehicle"])

	Flush(time.Second)
	assert.Equal(t, 1, m.flushes)
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	m := &recordingMonitor{}
	Init(m)
	defer Init(nil)

	assert.PanicsWithValue(t, "bad order", func() {
		defer Recover()
		panic("bad order")
	})
	assert.Equal(t, []any{"bad order"}, m.panics)
	assert.Equal(t, 1, m.flushes)
}

func TestRecoverWithoutPanic(t *testing.T) {
	m := &recordingMonitor{}
	Init(m)
	defer Init(nil)
	func() {
		defer Recover()
	}()
	assert.Empty(t, m.panics)
}
