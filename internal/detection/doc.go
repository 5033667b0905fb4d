// Package detection recognizes a single filled shape on a flat background.
//
// It is the read-back half of the generator: given a rendered image it recovers the
// shape's pixel extent and guesses its category, which lets a written dataset be
// checked against its annotations without trusting the code that produced it.
//
// # Algorithm Overview
//
//  1. Background: the most common color among the canvas corners. Shapes never reach
//     the corners of their own bounding box, so corner pixels are always background.
//  2. Foreground mask: the CIE L*a*b* distance of every pixel to the background,
//     scaled to 8-bit gray and thresholded with bild's segment.Threshold. The cut sits
//     at half the largest distance, so antialiased edge pixels count as foreground
//     when they are at least half covered.
//  3. Radial profile: the farthest mask pixel from the centroid in each of 72 angular
//     bins of 5 degrees.
//  4. Classification: the ratio of the smallest to the largest profile radius, plus
//     the number of profile lobes (vertices) above the midline.
//
// # Radius Ratios
//
// For an ideal shape the min/max radius ratio is the inradius over the circumradius:
//
//	circle    1.000
//	hexagon   0.866  (cos 30)
//	pentagon  0.809  (cos 36)
//	square    0.707  (cos 45)
//	star      0.500  (inner radius is half the outer)
//
// # Coordinate System
//
// Bounds use (X1, Y1) inclusive and (X2, Y2) exclusive, so Bounds.BBox converts
// directly to a COCO [x, y, width, height] box.
//
// # Limitations
//
// Only one shape per image is supported. Small shapes (under roughly 40 pixels) and
// foreground colors very close to the background give unreliable results; callers
// should treat a disagreement as a warning rather than an error.
package detection
