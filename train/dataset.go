package train

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/f1vision/penaltyvision"
	"github.com/f1vision/penaltyvision/preprocess"
)

const (
	augmentedYAML = "data_augmented.yaml"
	originalYAML  = "data.yaml"
)

// ErrNoDataset is returned when a dataset directory holds no data YAML
var ErrNoDataset = errors.New("no dataset yaml found")

// ResolveDataset returns the absolute path of the dataset YAML in dir,
// preferring the augmented dataset over the original when it exists
func ResolveDataset(dir string) (string, bool, error) {

	for _, name := range []string{augmentedYAML, originalYAML} {
		file := filepath.Join(dir, name)

		if _, err := os.Stat(file); err != nil {
			continue
		}

		abs, err := filepath.Abs(file)

		if err != nil {
			return "", false, fmt.Errorf("error resolving dataset path: %w", err)
		}

		return abs, name == augmentedYAML, nil
	}

	return "", false, fmt.Errorf("%w in %s", ErrNoDataset, dir)
}

// splits in the order they are reported
var splits = []string{"train", "val", "test"}

// Dataset summarizes a YOLO format dataset
type Dataset struct {
	File  string
	Names []string
	// Images counts the image files of each split
	Images map[string]int
}

// String reports image counts and classes in one line
func (d Dataset) String() string {
	return fmt.Sprintf("%d train, %d valid, %d test images, classes: %s",
		d.Images["train"], d.Images["val"], d.Images["test"],
		strings.Join(d.Names, ", "))
}

// dataFile is the split layout of a data YAML
type dataFile struct {
	Path   string               `yaml:"path"`
	Splits map[string]yaml.Node `yaml:",inline"`
}

// LoadDataset reads the data YAML and counts the images of each split
func LoadDataset(file string) (Dataset, error) {

	buf, err := os.ReadFile(file)

	if err != nil {
		return Dataset{}, fmt.Errorf("error reading dataset yaml: %w", err)
	}

	names, err := penaltyvision.ParseDatasetLabels(buf)

	if err != nil {
		return Dataset{}, err
	}

	var df dataFile

	if err := yaml.Unmarshal(buf, &df); err != nil {
		return Dataset{}, fmt.Errorf("error parsing dataset yaml: %w", err)
	}

	root := filepath.Dir(file)

	if df.Path != "" {
		if filepath.IsAbs(df.Path) {
			root = df.Path
		} else {
			root = filepath.Join(root, df.Path)
		}
	}

	ds := Dataset{
		File:   file,
		Names:  names,
		Images: make(map[string]int),
	}

	for _, split := range splits {
		node, ok := df.Splits[split]

		if !ok {
			continue
		}

		var dirs []string

		switch node.Kind {
		case yaml.ScalarNode:
			dirs = []string{node.Value}
		case yaml.SequenceNode:
			if err := node.Decode(&dirs); err != nil {
				return Dataset{}, fmt.Errorf("error parsing %s split: %w", split, err)
			}
		}

		for _, dir := range dirs {
			n, err := countImages(splitDir(root, dir))

			if err != nil {
				return Dataset{}, fmt.Errorf("error counting %s images: %w", split, err)
			}

			ds.Images[split] += n
		}
	}

	return ds, nil
}

// splitDir resolves a split directory relative to the dataset root.  Dataset
// exports often write "../train/images" relative to a parent that does not
// exist, so the leading "../" is dropped when the path is not found.
func splitDir(root, dir string) string {

	if filepath.IsAbs(dir) {
		return dir
	}

	path := filepath.Join(root, dir)

	if _, err := os.Stat(path); err != nil && strings.HasPrefix(dir, "../") {
		return filepath.Join(root, dir[3:])
	}

	return path
}

// countImages counts image files directly inside dir
func countImages(dir string) (int, error) {

	entries, err := os.ReadDir(dir)

	if err != nil {
		return 0, err
	}

	n := 0

	for _, e := range entries {
		if !e.IsDir() && preprocess.ImageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			n++
		}
	}

	return n, nil
}
