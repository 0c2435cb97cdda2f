package stats

// Class names reported for the two detection classes
const (
	PenaltyName    = "Penalty"
	NonPenaltyName = "Non-Penalty"
)

// DefaultPenaltyClass is the class index of the Penalty label in the
// dataset the model was trained on, the remaining index being Non-Penalty
const DefaultPenaltyClass = 1

// Classify returns the display name for the given class index
func Classify(classID, penaltyClass int) string {
	if classID == penaltyClass {
		return PenaltyName
	}

	return NonPenaltyName
}

// Counters keeps running totals over a processing session.  All values only
// ever increase until Reset is called.
type Counters struct {
	// Frames is the number of frames processed
	Frames int
	// Penalty is the number of Penalty boxes detected across all frames
	Penalty int
	// NonPenalty is the number of Non-Penalty boxes detected across all frames
	NonPenalty int
	// penaltyClass is the class index counted as Penalty
	penaltyClass int
}

// NewCounters returns zeroed counters treating penaltyClass as the Penalty
// class index
func NewCounters(penaltyClass int) *Counters {
	return &Counters{
		penaltyClass: penaltyClass,
	}
}

// Record accounts for one processed frame with the class index of every box
// detected in it
func (c *Counters) Record(classIDs []int) {

	for _, id := range classIDs {
		if id == c.penaltyClass {
			c.Penalty++
		} else {
			c.NonPenalty++
		}
	}

	c.Frames++
}

// PenaltyClass returns the class index counted as Penalty
func (c *Counters) PenaltyClass() int {
	return c.penaltyClass
}

// Detections returns the total number of boxes counted
func (c *Counters) Detections() int {
	return c.Penalty + c.NonPenalty
}

// Reset zeroes all counters
func (c *Counters) Reset() {
	c.Frames = 0
	c.Penalty = 0
	c.NonPenalty = 0
}
