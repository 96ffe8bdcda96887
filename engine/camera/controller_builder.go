package camera

import "github.com/go-gl/mathgl/mgl32"

// OrbitOption configures an orbit controller.
type OrbitOption func(*orbitController)

// WithOrbitTarget sets the point the controller orbits around.
//
// Parameters:
//   - x, y, z: world-space orbit center
//
// Returns:
//   - OrbitOption: a function that sets the orbit center
func WithOrbitTarget(x, y, z float32) OrbitOption {
	return func(oc *orbitController) {
		oc.target = mgl32.Vec3{x, y, z}
	}
}

// WithRadius sets the initial distance from the target.
func WithRadius(radius float32) OrbitOption {
	return func(oc *orbitController) {
		oc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle in radians.
func WithAzimuth(azimuth float32) OrbitOption {
	return func(oc *orbitController) {
		oc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle in radians.
func WithElevation(elevation float32) OrbitOption {
	return func(oc *orbitController) {
		oc.elevation = elevation
	}
}

// WithRadiusBounds constrains Zoom and the initial radius.
//
// Parameters:
//   - min: closest allowed distance
//   - max: farthest allowed distance
//
// Returns:
//   - OrbitOption: a function that sets the radius bounds
func WithRadiusBounds(min, max float32) OrbitOption {
	return func(oc *orbitController) {
		oc.minRadius = min
		oc.maxRadius = max
	}
}

// WithElevationBounds constrains the vertical angle in radians.
func WithElevationBounds(min, max float32) OrbitOption {
	return func(oc *orbitController) {
		oc.minElevation = min
		oc.maxElevation = max
	}
}

// WithOrbitSpeed sets the angle applied per unit of Orbit input.
func WithOrbitSpeed(speed float32) OrbitOption {
	return func(oc *orbitController) {
		oc.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the distance applied per unit of Zoom input.
func WithZoomSpeed(speed float32) OrbitOption {
	return func(oc *orbitController) {
		oc.zoomSpeed = speed
	}
}
