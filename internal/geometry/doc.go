// Package geometry refines an approximate chart region into a precise
// four-point quadrilateral.
//
// The oracle's region proposal is only roughly right: physical cards have
// rounded corners and the detector's box tends to hug the printed border
// loosely. The resolver recovers the true "virtual corners" by finding the
// chart's straight boundary edges and intersecting them:
//
//  1. Grayscale proxy of the float buffer, Gaussian-smoothed to suppress
//     sensor noise.
//  2. A search mask built by filling and dilating the approximate polygon,
//     so edge evidence from background clutter never votes.
//  3. Canny edge detection (Sobel gradients, non-maximum suppression,
//     hysteresis) restricted to the mask.
//  4. Hough segment detection over the surviving edges.
//  5. Segments classified as horizontal (|Δx| > |Δy|) or vertical; the
//     extreme segment per side (topmost/bottommost horizontal,
//     leftmost/rightmost vertical) is taken as that boundary line.
//  6. The four pairwise line intersections become the corner set.
//
// The resolver never raises. When the evidence is insufficient (fewer than
// two segments in either orientation, or a parallel-line intersection) it
// returns nil and the caller keeps the unrefined polygon. That silent
// fallback is a designed behavior, not an error path.
package geometry
