// Package ocr defines the boundary between the detection pipeline and an
// Optical Character Recognition backend.
//
// The pipeline only needs two recognition modes:
//
//   - ModeDigitLine: a single line of digits, used on padded red-number ROIs
//   - ModeTextBlock: a block of free text, used on motor-code candidates
//
// Engines are not shared between goroutines. Batch workers each obtain their
// own Engine from a Factory and close it when they exit.
//
// The Tesseract implementation lives in the tesseract subpackage so that code
// depending only on this interface builds without cgo. Package ocrtest
// provides scripted engines for tests.
package ocr
