// Package imaging provides the pixel-level primitives of the red number pipeline.
//
// It covers loading scanned sheets from disk (PNG, JPEG, GIF, BMP and TIFF),
// converting pixels to the OpenCV HSV scale, building binary masks, square and
// rectangular morphology, Otsu binarization, and cropping, padding and
// upscaling regions of interest.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For rectangles, Min is inclusive and Max is exclusive
//
// Every image or mask returned by this package has its origin at (0,0), so
// rectangles found on a mask can be used directly on the image it came from.
//
// # Thread Safety
//
// All functions are stateless and can be called concurrently on different
// images. Input images are never modified.
package imaging
