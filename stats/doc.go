/*
Package stats holds the running statistics of a video processing session: a
rolling window of instantaneous frames-per-second samples used for a smoothed
FPS display, and the Penalty / Non-Penalty detection counters.
*/
package stats
