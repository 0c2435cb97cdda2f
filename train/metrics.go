package train

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNoMetrics is returned when validation output has no summary row
var ErrNoMetrics = errors.New("no validation metrics found in output")

// ClassMetrics are the box metrics of one row of the validation table
type ClassMetrics struct {
	Class     string
	Images    int
	Instances int
	Precision float64
	Recall    float64
	MAP50     float64
	MAP50_95  float64
}

// Metrics of a validation run, the "all" row plus one row per class
type Metrics struct {
	ClassMetrics
	Classes []ClassMetrics
}

// ParseMetrics reads the validation table printed by yolo val.  Rows are
// "<class> <images> <instances> <P> <R> <mAP50> <mAP50-95>".
func ParseMetrics(output string) (Metrics, error) {

	var m Metrics
	found := false

	lines := strings.FieldsFunc(output, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	for _, line := range lines {
		row, ok := parseRow(line)

		if !ok {
			continue
		}

		if row.Class == "all" {
			// a later table replaces an earlier one
			m = Metrics{ClassMetrics: row}
			found = true
			continue
		}

		if found {
			m.Classes = append(m.Classes, row)
		}
	}

	if !found {
		return Metrics{}, ErrNoMetrics
	}

	return m, nil
}

// parseRow parses a table row, the class name may contain spaces
func parseRow(line string) (ClassMetrics, bool) {

	fields := strings.Fields(line)

	if len(fields) < 7 {
		return ClassMetrics{}, false
	}

	nums := fields[len(fields)-6:]

	images, err1 := strconv.Atoi(nums[0])
	instances, err2 := strconv.Atoi(nums[1])

	if err1 != nil || err2 != nil {
		return ClassMetrics{}, false
	}

	vals := make([]float64, 4)

	for i, s := range nums[2:] {
		v, err := strconv.ParseFloat(s, 64)

		if err != nil {
			return ClassMetrics{}, false
		}

		vals[i] = v
	}

	return ClassMetrics{
		Class:     strings.Join(fields[:len(fields)-6], " "),
		Images:    images,
		Instances: instances,
		Precision: vals[0],
		Recall:    vals[1],
		MAP50:     vals[2],
		MAP50_95:  vals[3],
	}, true
}
