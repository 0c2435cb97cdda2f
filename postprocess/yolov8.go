package postprocess

import (
	"fmt"

	"github.com/f1vision/penaltyvision"
	"github.com/f1vision/penaltyvision/postprocess/result"
	"github.com/f1vision/penaltyvision/preprocess"
)

// YOLOv8 defines the struct for YOLOv8 model inference post processing of
// the single output head produced by ONNX export
type YOLOv8 struct {
	// Params are the Model configuration parameters
	Params YOLOv8Params
	// idGen provides the next number for each detection result ID
	idGen *result.IDGenerator
}

// YOLOv8Params defines the struct containing the YOLOv8 parameters to use
// for post processing operations
type YOLOv8Params struct {
	// BoxThreshold is the minimum probability score required for a bounding box
	// region to be considered for processing
	BoxThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// ObjectClassNum is the number of different object classes the Model has
	// been trained with.  Zero takes the number from the output tensor.
	ObjectClassNum int
	// MaxObjectNumber is the maximum number of objects detected that can be
	// returned
	MaxObjectNumber int
}

// YOLOv8PenaltyParams returns an instance of YOLOv8Params configured with
// default values for the F1 penalty model featuring:
// - Object Classes: 2
// - Box Threshold: 0.25
// - NMS Threshold: 0.45
// - Maximum Object Number: 300
func YOLOv8PenaltyParams() YOLOv8Params {
	return YOLOv8Params{
		BoxThreshold:    0.25,
		NMSThreshold:    0.45,
		ObjectClassNum:  2,
		MaxObjectNumber: 300,
	}
}

// NewYOLOv8 returns an instance of the YOLOv8 post processor
func NewYOLOv8(p YOLOv8Params) *YOLOv8 {
	return &YOLOv8{
		Params: p,
		idGen:  result.NewIDGenerator(),
	}
}

// YOLOv8Result defines a struct used for object detection results
type YOLOv8Result struct {
	DetectResults []result.DetectResult
}

// GetDetectResults returns the object detection results containing bounding
// boxes
func (r YOLOv8Result) GetDetectResults() []result.DetectResult {
	return r.DetectResults
}

// detectData holds the candidate boxes passing the box threshold
type detectData struct {
	// filterBoxes holds x, y, w, h for each candidate in input coordinates
	filterBoxes []float32
	objProbs    []float32
	classID     []int
}

// DetectObjects takes the model outputs and runs the object detection process
// then returns the results with boxes mapped back to the source image through
// the letterbox geometry
func (y *YOLOv8) DetectObjects(outputs *penaltyvision.Outputs,
	box preprocess.Letterbox) (result.DetectionResult, error) {

	channels := outputs.Channels()
	anchors := outputs.Anchors()
	classNum := outputs.ClassNum()

	if classNum <= 0 {
		return YOLOv8Result{}, fmt.Errorf("unexpected output shape %v", outputs.Shape)
	}

	if y.Params.ObjectClassNum > 0 && y.Params.ObjectClassNum != classNum {
		return YOLOv8Result{}, fmt.Errorf("model predicts %d classes, expected %d",
			classNum, y.Params.ObjectClassNum)
	}

	if len(outputs.Data) < channels*anchors {
		return YOLOv8Result{}, fmt.Errorf("output has %d values, shape %v needs %d",
			len(outputs.Data), outputs.Shape, channels*anchors)
	}

	data := y.filterCandidates(outputs.Data, anchors, classNum)
	validCount := len(data.objProbs)

	if validCount <= 0 {
		// no object detected
		return YOLOv8Result{}, nil
	}

	// indexArray is used to keep and index of detect objects contained in
	// the "data" variable
	indexArray := make([]int, validCount)

	for i := range indexArray {
		indexArray[i] = i
	}

	quickSortIndiceInverse(data.objProbs, 0, validCount-1, indexArray)

	// create a unique set of ClassID (ie: eliminate any multiples found)
	classSet := make(map[int]bool)

	for _, id := range data.classID {
		classSet[id] = true
	}

	// for each classID in the classSet calculate the NMS
	for c := range classSet {
		nms(validCount, data.filterBoxes, data.classID, indexArray, c,
			y.Params.NMSThreshold)
	}

	// collate objects into a result for returning
	group := make([]result.DetectResult, 0)
	lastCount := 0

	for i := 0; i < validCount; i++ {
		if indexArray[i] == -1 {
			continue
		}

		if y.Params.MaxObjectNumber > 0 && lastCount >= y.Params.MaxObjectNumber {
			break
		}

		n := indexArray[i]

		x1, y1 := box.ToSource(data.filterBoxes[n*4+0], data.filterBoxes[n*4+1])
		x2, y2 := box.ToSource(data.filterBoxes[n*4+0]+data.filterBoxes[n*4+2],
			data.filterBoxes[n*4+1]+data.filterBoxes[n*4+3])

		group = append(group, result.DetectResult{
			Box: result.BoxRect{
				Left:   int(clamp(x1, 0, box.SrcWidth)),
				Top:    int(clamp(y1, 0, box.SrcHeight)),
				Right:  int(clamp(x2, 0, box.SrcWidth)),
				Bottom: int(clamp(y2, 0, box.SrcHeight)),
			},
			Probability: data.objProbs[i],
			Class:       data.classID[n],
			ID:          y.idGen.GetNext(),
		})

		lastCount++
	}

	return YOLOv8Result{
		DetectResults: group,
	}, nil
}

// filterCandidates walks every anchor of the [4+classes, anchors] output
// keeping those whose best class score passes the box threshold.  Boxes are
// converted from center x, center y, width, height to top left x, y, w, h.
func (y *YOLOv8) filterCandidates(out []float32, anchors, classNum int) *detectData {

	data := &detectData{}

	for a := 0; a < anchors; a++ {

		maxClassID := -1
		maxScore := y.Params.BoxThreshold

		for c := 0; c < classNum; c++ {
			score := out[(4+c)*anchors+a]

			if score > maxScore {
				maxScore = score
				maxClassID = c
			}
		}

		if maxClassID == -1 {
			continue
		}

		cx := out[a]
		cy := out[anchors+a]
		w := out[2*anchors+a]
		h := out[3*anchors+a]

		data.filterBoxes = append(data.filterBoxes, cx-w/2, cy-h/2, w, h)
		data.objProbs = append(data.objProbs, maxScore)
		data.classID = append(data.classID, maxClassID)
	}

	return data
}
