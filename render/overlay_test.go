package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestOverlayLines(t *testing.T) {

	lines := overlayLines(OverlayStats{
		FPS:          31.26,
		Frame:        120,
		Penalties:    4,
		NonPenalties: 9,
		Current:      2,
	})

	require.Len(t, lines, 6)

	texts := make([]string, len(lines))

	for i, l := range lines {
		texts[i] = l.text
	}

	assert.Equal(t, []string{
		DefaultOverlayTitle,
		"FPS: 31.3",
		"Frame: 120",
		"Penalties: 4",
		"Non-Penalties: 9",
		"Current: 2 detections",
	}, texts)

	assert.Equal(t, Green, lines[1].clr)

	// every line sits inside the panel
	for _, l := range lines {
		assert.True(t, l.pos.In(panelRect), "line %q at %v", l.text, l.pos)
	}
}

func TestOverlayFPSColor(t *testing.T) {
	slow := overlayLines(OverlayStats{FPS: 29.9})
	assert.Equal(t, Orange, slow[1].clr)

	exact := overlayLines(OverlayStats{FPS: TargetFPS})
	assert.Equal(t, Green, exact[1].clr)

	custom := overlayLines(OverlayStats{Title: "GB10"})
	assert.Equal(t, "GB10", custom[0].text)
}

func TestOverlayBlendsPanel(t *testing.T) {

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), 480, 640,
		gocv.MatTypeCV8UC3)
	defer img.Close()

	Overlay(&img, OverlayStats{FPS: 12})

	// outside the panel is untouched
	assert.Equal(t, uint8(200), img.GetVecbAt(300, 500)[0])

	// inside the panel, away from the text, is darkened to 70%
	assert.InDelta(t, 140, int(img.GetVecbAt(175, 395)[1]), 1)
}

func TestClassColor(t *testing.T) {
	assert.Equal(t, classColors[0], ClassColor(0))
	assert.Equal(t, classColors[1], ClassColor(1))
	assert.Equal(t, classColors[0], ClassColor(len(classColors)))
	assert.Equal(t, classColors[3], ClassColor(-3))
}

func TestClassName(t *testing.T) {
	names := []string{"Non-Penalty", "Penalty"}

	assert.Equal(t, "Penalty", ClassName(names, 1))
	assert.Equal(t, "7", ClassName(names, 7))
	assert.Equal(t, "0", ClassName(nil, 0))
}
