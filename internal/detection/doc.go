// Package detection finds red part numbers and printed engine codes on
// scanned parts diagrams.
//
// # Pipeline
//
// Processor.ProcessImage runs two independent passes over one image:
//
//  1. Numbers: Segmenter builds a red-ink mask from two HSV ranges (red wraps
//     around hue 0) and cleans it with a closing then an opening. FindRegions
//     enumerates the external 8-connected components and GeometryFilter keeps
//     those shaped like digit groups. NumberExtractor pads each region, reads
//     it as a single digit line and retries once with inverted polarity.
//  2. Motor codes: MotorExtractor binarizes the top section of the sheet,
//     dilates it so each printed line becomes one block, reads each block as
//     free text, truncates at terminator phrases such as "KW:" and runs the
//     prioritized pattern cascade.
//
// Numbers are deduplicated and sorted numerically. Motor codes are
// deduplicated and kept in the order found (top to bottom, left to right).
//
// # Coordinate System
//
// Regions use image.Rectangle with an inclusive Min and exclusive Max,
// relative to the image they were found on.
//
// # Debug Output
//
// A DebugSink receives the intermediate images of every stage. DirSink writes
// them as PNG files; the default NopSink skips rendering entirely.
package detection
