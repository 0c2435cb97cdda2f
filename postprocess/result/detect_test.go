package result

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYOLOLabel(t *testing.T) {
	d := DetectResult{
		Class: 1,
		Box:   BoxRect{Left: 100, Top: 50, Right: 300, Bottom: 150},
	}

	assert.Equal(t, "1 0.5 0.25 0.5 0.25", d.YOLOLabel(400, 400))
	assert.Equal(t, [4]float32{100, 50, 300, 150}, d.XYXY())
}

func TestClassIDs(t *testing.T) {
	dets := []DetectResult{{Class: 0}, {Class: 1}, {Class: 1}}
	assert.Equal(t, []int{0, 1, 1}, ClassIDs(dets))
	assert.Empty(t, ClassIDs(nil))
}

func TestIDGenerator(t *testing.T) {
	gen := NewIDGenerator()

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gen.GetNext()
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(51), gen.GetNext())
}
