package penaltyvision

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
	"gopkg.in/yaml.v3"
)

// DefaultLabels are the class names of the F1 penalty dataset in class index
// order
var DefaultLabels = []string{"Non-Penalty", "Penalty"}

// LoadLabels reads the labels used to train the Model from the given text file.
// It should contain one label per line.
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)

	var labels []string

	// read and trim each line
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// datasetNames is the part of an Ultralytics dataset YAML holding the class
// names, which may be either a list or a map of index to name
type datasetNames struct {
	Names yaml.Node `yaml:"names"`
}

// LoadDatasetLabels reads the class names from an Ultralytics dataset YAML
// file such as data.yaml
func LoadDatasetLabels(file string) ([]string, error) {

	buf, err := os.ReadFile(file)

	if err != nil {
		return nil, fmt.Errorf("error reading dataset file: %w", err)
	}

	return ParseDatasetLabels(buf)
}

// ParseDatasetLabels extracts the class names from dataset YAML content
func ParseDatasetLabels(buf []byte) ([]string, error) {

	var ds datasetNames

	if err := yaml.Unmarshal(buf, &ds); err != nil {
		return nil, fmt.Errorf("error parsing dataset yaml: %w", err)
	}

	switch ds.Names.Kind {
	case yaml.SequenceNode:
		var names []string

		if err := ds.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("error decoding names list: %w", err)
		}

		return names, nil

	case yaml.MappingNode:
		var names map[int]string

		if err := ds.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("error decoding names map: %w", err)
		}

		return indexedNames(names), nil

	default:
		return nil, fmt.Errorf("dataset yaml has no names")
	}
}

// metadataNameRe matches one "index: 'name'" entry of the Python dict literal
// the exporter writes to the model metadata
var metadataNameRe = regexp.MustCompile(`(\d+)\s*:\s*(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)")`)

// ParseMetadataNames parses the "names" model metadata value, for example
// {0: 'Non-penalty', 1: 'Penalty'}
func ParseMetadataNames(value string) ([]string, error) {

	matches := metadataNameRe.FindAllStringSubmatch(value, -1)

	if len(matches) == 0 {
		return nil, fmt.Errorf("no class names found in %q", value)
	}

	names := make(map[int]string, len(matches))

	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])

		if err != nil {
			return nil, fmt.Errorf("invalid class index %q: %w", m[1], err)
		}

		name := m[2]

		if name == "" {
			name = m[3]
		}

		names[idx] = name
	}

	return indexedNames(names), nil
}

// indexedNames orders a map of class index to name into a slice, leaving
// gaps as the index number
func indexedNames(names map[int]string) []string {

	maxIdx := -1

	for idx := range names {
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	out := make([]string, maxIdx+1)

	for i := range out {
		out[i] = strconv.Itoa(i)
	}

	keys := make([]int, 0, len(names))

	for idx := range names {
		keys = append(keys, idx)
	}

	sort.Ints(keys)

	for _, idx := range keys {
		if idx >= 0 {
			out[idx] = names[idx]
		}
	}

	return out
}

// LoadModelLabels reads the class names embedded in an ONNX model's custom
// metadata
func LoadModelLabels(modelFile string) ([]string, error) {

	md, err := ort.GetModelMetadata(modelFile)

	if err != nil {
		return nil, fmt.Errorf("error reading model metadata: %w", err)
	}

	defer md.Destroy()

	value, ok, err := md.LookupCustomMetadataMap("names")

	if err != nil {
		return nil, fmt.Errorf("error looking up names metadata: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("model has no names metadata")
	}

	return ParseMetadataNames(value)
}

// ResolveLabels returns class names from the labels file if given, else from
// the model metadata, falling back to DefaultLabels
func ResolveLabels(labelFile, modelFile string) ([]string, error) {

	if labelFile != "" {
		if strings.HasSuffix(labelFile, ".yaml") || strings.HasSuffix(labelFile, ".yml") {
			return LoadDatasetLabels(labelFile)
		}

		return LoadLabels(labelFile)
	}

	if ort.IsInitialized() {
		if labels, err := LoadModelLabels(modelFile); err == nil {
			return labels, nil
		}
	}

	return DefaultLabels, nil
}
