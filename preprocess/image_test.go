package preprocess

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadImage(t *testing.T) {
	file := filepath.Join(t.TempDir(), "frame.png")

	src := imaging.New(64, 48, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	require.NoError(t, imaging.Save(src, file))

	mat, err := LoadImage(file)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 64, mat.Cols())
	assert.Equal(t, 48, mat.Rows())
	assert.Equal(t, 3, mat.Channels())
}

func TestLoadImageMissing(t *testing.T) {
	mat, err := LoadImage(filepath.Join(t.TempDir(), "missing.jpg"))
	defer mat.Close()

	assert.Error(t, err)
	assert.True(t, mat.Empty())
}

func TestImageExtensions(t *testing.T) {
	assert.True(t, ImageExtensions[filepath.Ext("a.jpg")])
	assert.False(t, ImageExtensions[filepath.Ext("a.mp4")])
}
