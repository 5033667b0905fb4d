// Package shapes defines the shape categories of the dataset and renders them.
//
// Every category is a closed variant that knows how to draw itself onto a Canvas:
//
//   - Circle: an axis-aligned ellipse inscribed in the bounding box. Rotation is ignored.
//   - Square, Pentagon, Hexagon: regular polygons with 4, 5 and 6 sides whose vertices
//     lie on the circle inscribed in the bounding box, offset by the rotation angle.
//   - Star: a 10-vertex polygon alternating between the outer radius (size/2) and the
//     inner radius (size/4).
//
// A square produced this way is a rotated quadrilateral, not an axis-aligned box.
//
// # Coordinate System
//
// All positions are in pixels with (0,0) at the top-left corner of the canvas, X
// increasing rightward and Y increasing downward. A shape is placed by the top-left
// corner (x, y) of its square bounding box and the box side length size.
//
// # Randomness
//
// Sampling helpers take an explicit *rand.Rand so callers control seeding. Nothing in
// this package keeps random state of its own.
package shapes
