package penaltyvision

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// fakeEngine is an Engine that records when it has been closed
type fakeEngine struct {
	closed bool
}

func (f *fakeEngine) Inference(gocv.Mat) (*Outputs, error) {
	return &Outputs{Shape: []int{1, 6, 0}}, nil
}

func (f *fakeEngine) InputAttrs() InputAttribute {
	return InputAttribute{Width: 640, Height: 640, Channel: 3}
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func TestPoolGetReturn(t *testing.T) {

	var created []*fakeEngine

	p, err := NewPoolFunc(3, func() (Engine, error) {
		e := &fakeEngine{}
		created = append(created, e)
		return e, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, p.Size())
	assert.Len(t, created, 3)

	var wg sync.WaitGroup

	for i := 0; i < 12; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			e := p.Get()
			_, _ = e.Inference(gocv.NewMat())
			p.Return(e)
		}()
	}

	wg.Wait()

	require.NoError(t, p.Close())

	for _, e := range created {
		assert.True(t, e.closed)
	}

	// second close is a no-op
	assert.NoError(t, p.Close())
}

func TestPoolOpenErrorClosesCreated(t *testing.T) {

	var created []*fakeEngine
	openErr := errors.New("no model")

	_, err := NewPoolFunc(3, func() (Engine, error) {
		if len(created) == 2 {
			return nil, openErr
		}

		e := &fakeEngine{}
		created = append(created, e)
		return e, nil
	})

	assert.ErrorIs(t, err, openErr)

	for _, e := range created {
		assert.True(t, e.closed)
	}
}

func TestPoolReturnAfterClose(t *testing.T) {

	p, err := NewPoolFunc(2, func() (Engine, error) {
		return &fakeEngine{}, nil
	})
	require.NoError(t, err)

	e := p.Get().(*fakeEngine)

	require.NoError(t, p.Close())
	assert.False(t, e.closed)

	assert.NotPanics(t, func() { p.Return(e) })
	assert.True(t, e.closed)
}

func TestThreadsPerEngine(t *testing.T) {
	assert.Equal(t, 8, threadsPerEngine(1, 8))
	assert.Equal(t, 2, threadsPerEngine(4, 8))
	assert.Equal(t, 2, threadsPerEngine(3, 8))
	assert.Equal(t, 1, threadsPerEngine(8, 8))
	assert.Equal(t, 1, threadsPerEngine(16, 8))
	assert.Equal(t, 8, threadsPerEngine(0, 8))
}
