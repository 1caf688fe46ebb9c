// Package buffer provides the float ingestion layer for the audit pipeline.
//
// Every pipeline stage works on a Buffer: a dense H×W×3 float32 array of
// linear-referred RGB. Decoded images from PNG, JPEG, GIF, TIFF, and BMP
// sources are scaled from integer samples into [0, 1]; HDR buffers built by
// upstream tooling may carry values above 1.0 and are flagged, not rejected.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner,
// X increasing rightward and Y increasing downward. Reads outside the
// buffer clamp to the nearest edge pixel.
//
// # Thread Safety
//
// Cache is safe for concurrent use. A Buffer itself carries no lock: it is
// immutable by convention once ingestion finishes, which is what makes it
// safe to share across concurrent audits.
package buffer
