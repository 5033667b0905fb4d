package shapes

import "math"

// Point is a vertex position in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StarPoints is the number of outer points of a star.
const StarPoints = 5

// Center returns the center of the square bounding box at (x, y) with side size.
func Center(x, y, size float64) Point {
	return Point{X: x + size/2, Y: y + size/2}
}

// RegularPolygonVertices computes sides vertices evenly spaced on the circle of
// diameter size centered in the bounding box at (x, y). The first vertex sits at angle
// rotation (radians) and each subsequent one advances by 2π/sides.
func RegularPolygonVertices(x, y, size float64, sides int, rotation float64) []Point {
	if sides <= 0 {
		return nil
	}
	c := Center(x, y, size)
	radius := size / 2
	step := 2 * math.Pi / float64(sides)

	points := make([]Point, sides)
	for i := range points {
		angle := rotation + step*float64(i)
		points[i] = Point{
			X: c.X + math.Cos(angle)*radius,
			Y: c.Y + math.Sin(angle)*radius,
		}
	}
	return points
}

// StarVertices computes the 10 vertices of a five-pointed star centered in the bounding
// box at (x, y). Even vertices lie at radius size/2, odd ones at size/4, with an angle
// step of π/5 starting at rotation.
func StarVertices(x, y, size, rotation float64) []Point {
	c := Center(x, y, size)
	step := math.Pi / StarPoints

	points := make([]Point, 2*StarPoints)
	for i := range points {
		radius := size / 2
		if i%2 == 1 {
			radius = size / 4
		}
		angle := rotation + step*float64(i)
		points[i] = Point{
			X: c.X + math.Cos(angle)*radius,
			Y: c.Y + math.Sin(angle)*radius,
		}
	}
	return points
}
