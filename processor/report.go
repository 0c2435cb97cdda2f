package processor

import (
	"fmt"
	"io"
	"strings"
)

// printProperties writes the video details shown before processing
func printProperties(w io.Writer, p Properties) {
	fmt.Fprintf(w, "Video Properties:\n")
	fmt.Fprintf(w, "  Resolution: %dx%d\n", p.Width, p.Height)
	fmt.Fprintf(w, "  Input FPS: %.2f\n", p.FPS)
	fmt.Fprintf(w, "  Total Frames: %d\n", p.FrameCount)
	fmt.Fprintf(w, "  Duration: %.2fs\n\n", p.Duration().Seconds())
}

// printSummary writes the end of run totals
func printSummary(w io.Writer, s Summary, output string) {

	rule := strings.Repeat("=", 70)

	fmt.Fprintf(w, "\n\n%s\nPROCESSING COMPLETE!\n%s\n\n", rule, rule)
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Frames Processed: %d\n", s.Frames)
	fmt.Fprintf(w, "  Average FPS: %.1f\n", s.AverageFPS)

	if s.MaxFPS > 0 {
		fmt.Fprintf(w, "  FPS Range: %.1f - %.1f\n", s.MinFPS, s.MaxFPS)
	}

	fmt.Fprintf(w, "  Total Penalties: %d\n", s.Penalties)
	fmt.Fprintf(w, "  Total Non-Penalties: %d\n", s.NonPenalties)

	if output != "" {
		fmt.Fprintf(w, "  Output Saved: %s\n", output)
	}

	fmt.Fprintln(w)
}
