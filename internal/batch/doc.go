// Package batch runs the detection pipeline over a set of images on a bounded
// pool of workers.
//
// Every worker builds its own OCR engine through an ocr.Factory and closes it
// when it exits, so engine handles are never shared between goroutines. A
// single collecting loop owns the result map and is the only caller of the
// progress callback. A failure on one image, including a panic, is recorded
// as an empty result for that image and never stops the batch.
//
// Rows flattens a Result into output records in input order, independent of
// the order in which workers finished.
package batch
