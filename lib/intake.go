package lib

import (
	"github.com/fiffu/stockwatch/lib/errs"
	"github.com/fiffu/stockwatch/lib/models"
)

// Intake is the outcome of matching a caller's size selection against a product's sizes.
type Intake struct {
	// Sizes is the effective selection to track, nil meaning every size.
	Sizes models.SizeSet
	// RequiresSelection is set when the product has several sizes and the caller picked none.
	RequiresSelection bool
	// Candidates are the labels the caller can choose from.
	Candidates []string
}

// Track reports whether a job may start for this intake.
func (in Intake) Track() bool { return !in.RequiresSelection }

// gateSizes decides whether tracking can start right away. A selection must be drawn from the
// product's current labels; labels that disappear later are dropped when ticks evaluate stock.
func gateSizes(labels []string, selection models.SizeSet) (Intake, error) {
	if len(labels) <= 1 {
		return Intake{Candidates: labels}, nil
	}
	if !selection.Selected() {
		return Intake{RequiresSelection: true, Candidates: labels}, nil
	}

	known := models.SizeSet(labels)
	var unknown []string
	for _, l := range selection {
		if !known.Contains(l) {
			unknown = append(unknown, l)
		}
	}
	if len(unknown) > 0 {
		return Intake{}, errs.ValidationWithDetails("unknown sizes for this product", map[string][]string{
			"unknown": unknown,
			"sizes":   labels,
		})
	}
	return Intake{Sizes: selection, Candidates: labels}, nil
}
