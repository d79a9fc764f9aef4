package batch

import (
	"github.com/ironsheep/red-numbers/internal/imaging"
)

// Row is one output record: a number found on an image, paired with one of
// the image's motor codes.
type Row struct {
	File      string // file identifier (name up to the first dot)
	Number    string
	MotorCode string
}

// Rows flattens a batch result in input order. An image with N numbers and M
// motor codes yields N*M rows, number-major; with no motor codes it yields N
// rows with an empty MotorCode. Images without numbers yield nothing.
func Rows(r *Result) []Row {
	rows := make([]Row, 0)
	for _, path := range r.Order {
		res := r.Images[path]
		id := imaging.FileID(path)
		for _, n := range res.Numbers {
			if len(res.MotorCodes) == 0 {
				rows = append(rows, Row{File: id, Number: n})
				continue
			}
			for _, code := range res.MotorCodes {
				rows = append(rows, Row{File: id, Number: n, MotorCode: code})
			}
		}
	}
	return rows
}

// Summary counts what a batch produced.
type Summary struct {
	Images    int
	Failed    int
	Canceled  int
	Rows      int
	WithCodes int // images with at least one motor code
}

// Summarize returns the counts for r.
func Summarize(r *Result) Summary {
	s := Summary{
		Images:   len(r.Order),
		Failed:   len(r.Failed),
		Canceled: len(r.Canceled),
		Rows:     len(Rows(r)),
	}
	for _, res := range r.Images {
		if len(res.MotorCodes) > 0 {
			s.WithCodes++
		}
	}
	return s
}
