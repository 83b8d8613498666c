package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts sun longitude/latitude angles in degrees to a light direction.
// Longitude is rotation around Y (0-360), latitude is elevation from the horizon (0-90).
// The result points towards the sun.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lonRad := float64(longitude) * math.Pi / 180.0
	latRad := float64(latitude) * math.Pi / 180.0

	x := float32(math.Cos(latRad) * math.Sin(lonRad))
	y := float32(math.Sin(latRad))
	z := float32(math.Cos(latRad) * math.Cos(lonRad))

	return mgl32.Vec3{x, y, z}
}

// SunRotation returns the entity rotation whose resolved light direction equals SunDirection.
func SunRotation(longitude, latitude float32) mgl32.Mat4 {
	return mgl32.QuatBetweenVectors(mgl32.Vec3{0, 1, 0}, SunDirection(longitude, latitude)).Mat4()
}
