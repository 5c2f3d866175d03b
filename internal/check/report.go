package check

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/schaermu/metapair/internal/verify"
)

// Reporter prints violations one per line
type Reporter struct {
	w     io.Writer
	color *color.Color
}

// NewReporter creates a reporter writing to w. Colour is only emitted when
// colored is set and the terminal supports it.
func NewReporter(w io.Writer, colored bool) *Reporter {
	c := color.New(color.FgRed)
	if !colored {
		c.DisableColor()
	}
	return &Reporter{w: w, color: c}
}

// Print writes every violation of v and returns the first write error
func (r *Reporter) Print(v verify.Verdict) error {
	for _, violation := range v.Violations() {
		if _, err := r.color.Fprintln(r.w, violation.Message()); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
