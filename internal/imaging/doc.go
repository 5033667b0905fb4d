// Package imaging provides the raster helpers used to inspect generated images.
//
// It covers reading images back from disk (ImageCache, LoadImageInfo), color sampling
// and comparison, cropping annotated regions and drawing annotation overlays. All
// operations work with standard Go image.Image values.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward. Boxes follow the COCO convention
// [x, y, width, height]; the covered pixels are x..x+width-1 and y..y+height-1.
//
// # Color Representation
//
// Colors are reported as hex "#RRGGBB", 8-bit RGB and HSL (Hue 0-360, Saturation and
// Lightness 0-100). Perceptual comparisons use the CIE L*a*b* distance from
// go-colorful, where roughly 0.01 is a barely visible difference and 1.0 is the
// black/white distance.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions are stateless and may run
// concurrently on different images.
package imaging
