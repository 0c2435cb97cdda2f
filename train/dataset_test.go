package train

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeDataset lays out a dataset export with the given image counts
func makeDataset(t *testing.T, train, valid, test int) string {

	dir := t.TempDir()

	for split, n := range map[string]int{"train": train, "valid": valid, "test": test} {
		images := filepath.Join(dir, split, "images")
		require.NoError(t, os.MkdirAll(images, 0o755))

		for i := 0; i < n; i++ {
			require.NoError(t, os.WriteFile(filepath.Join(images, filepath.Base(split)+string(rune('a'+i))+".jpg"),
				nil, 0o644))
		}

		// label files are not counted
		require.NoError(t, os.WriteFile(filepath.Join(images, "classes.txt"), nil, 0o644))
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.yaml"), []byte(`
train: ../train/images
val: ../valid/images
test: ../test/images

nc: 2
names: ['Non-penalty', 'Penalty']
`), 0o644))

	return dir
}

func TestResolveDataset(t *testing.T) {

	dir := makeDataset(t, 1, 1, 1)

	file, augmented, err := ResolveDataset(dir)
	require.NoError(t, err)
	assert.False(t, augmented)
	assert.Equal(t, filepath.Join(dir, "data.yaml"), file)
	assert.True(t, filepath.IsAbs(file))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "data_augmented.yaml"), nil, 0o644))

	file, augmented, err = ResolveDataset(dir)
	require.NoError(t, err)
	assert.True(t, augmented)
	assert.Equal(t, filepath.Join(dir, "data_augmented.yaml"), file)
}

func TestResolveDatasetMissing(t *testing.T) {
	_, _, err := ResolveDataset(t.TempDir())
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestLoadDataset(t *testing.T) {

	dir := makeDataset(t, 5, 3, 2)

	ds, err := LoadDataset(filepath.Join(dir, "data.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Non-penalty", "Penalty"}, ds.Names)
	assert.Equal(t, map[string]int{"train": 5, "val": 3, "test": 2}, ds.Images)
	assert.Equal(t, "5 train, 3 valid, 2 test images, classes: Non-penalty, Penalty", ds.String())
}

func TestLoadDatasetPathAndList(t *testing.T) {

	dir := makeDataset(t, 2, 1, 1)

	file := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
path: `+dir+`
train: [train/images, valid/images]
val: valid/images
names:
  0: Non-penalty
  1: Penalty
`), 0o644))

	ds, err := LoadDataset(file)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Images["train"])
	assert.Equal(t, 1, ds.Images["val"])
	assert.Equal(t, 0, ds.Images["test"])
}
