package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// skyLuminanceScale maps Preetham luminance (kcd/m²) into the renderer's HDR range.
const skyLuminanceScale = 0.05

// Preetham is the Preetham, Shirley and Smits analytic daylight model for one sun
// position and turbidity. Channels are Y (luminance) then the x and y chromaticities.
type Preetham struct {
	Sun       mgl32.Vec3
	Turbidity float32
	// Perez holds the A to E distribution coefficients.
	Perez [5]mgl32.Vec3
	// Zenith is the zenith Yxy.
	Zenith mgl32.Vec3
	// Norm is the Perez function at the zenith, F(0, θs), per channel.
	Norm mgl32.Vec3
	// Fade darkens the sky as the sun sets: 1 above the horizon, 0 once it is well below.
	Fade float32
}

// NewPreetham evaluates the model parameters. sun points towards the sun and need not be
// normalized. The sun is held at the horizon for the distribution once it sets.
func NewPreetham(sun mgl32.Vec3, turbidity float32) Preetham {
	if sun.Len() == 0 {
		sun = mgl32.Vec3{0, 1, 0}
	}
	sun = sun.Normalize()
	p := Preetham{Sun: sun, Turbidity: turbidity}
	p.Fade = float32(smoothstep(-0.1, 0.02, float64(sun[1])))

	t := float64(turbidity)
	thetaS := math.Acos(clamp(float64(sun[1]), 0.02, 1))

	p.Perez = [5]mgl32.Vec3{
		{float32(0.1787*t - 1.4630), float32(-0.0193*t - 0.2592), float32(-0.0167*t - 0.2608)},
		{float32(-0.3554*t + 0.4275), float32(-0.0665*t + 0.0008), float32(-0.0950*t + 0.0092)},
		{float32(-0.0227*t + 5.3251), float32(-0.0004*t + 0.2125), float32(-0.0079*t + 0.2102)},
		{float32(0.1206*t - 2.5771), float32(-0.0641*t - 0.8989), float32(-0.0441*t - 1.6537)},
		{float32(-0.0670*t + 0.3703), float32(-0.0033*t + 0.0452), float32(-0.0109*t + 0.0529)},
	}

	chi := (4.0/9 - t/120) * (math.Pi - 2*thetaS)
	zenithY := (4.0453*t-4.9710)*math.Tan(chi) - 0.2155*t + 2.4192
	th2, th3 := thetaS*thetaS, thetaS*thetaS*thetaS
	zenithX := t*t*(0.00166*th3-0.00375*th2+0.00209*thetaS) +
		t*(-0.02903*th3+0.06377*th2-0.03202*thetaS+0.00394) +
		(0.11693*th3 - 0.21196*th2 + 0.06052*thetaS + 0.25886)
	zenithYc := t*t*(0.00275*th3-0.00610*th2+0.00317*thetaS) +
		t*(-0.04214*th3+0.08970*th2-0.04153*thetaS+0.00516) +
		(0.15346*th3 - 0.26756*th2 + 0.06670*thetaS + 0.26688)
	p.Zenith = mgl32.Vec3{float32(zenithY), float32(zenithX), float32(zenithYc)}

	for c := 0; c < 3; c++ {
		p.Norm[c] = float32(p.perez(c, 1, math.Cos(thetaS), thetaS))
	}
	return p
}

// perez is the Perez distribution of channel c for a view at cosTheta from the zenith
// and gamma radians from the sun.
func (p Preetham) perez(c int, cosTheta, cosGamma, gamma float64) float64 {
	a, b, cc, d, e := float64(p.Perez[0][c]), float64(p.Perez[1][c]), float64(p.Perez[2][c]), float64(p.Perez[3][c]), float64(p.Perez[4][c])
	return (1 + a*math.Exp(b/cosTheta)) * (1 + cc*math.Exp(d*gamma) + e*cosGamma*cosGamma)
}

// Yxy returns the sky luminance and chromaticity seen along dir.
// Directions below the horizon see the horizon.
func (p Preetham) Yxy(dir mgl32.Vec3) mgl32.Vec3 {
	dir = dir.Normalize()
	cosTheta := max(float64(dir[1]), 0.01)
	cosGamma := clamp(float64(dir.Dot(p.Sun)), -1, 1)
	gamma := math.Acos(cosGamma)
	var out mgl32.Vec3
	for c := 0; c < 3; c++ {
		out[c] = p.Zenith[c] * float32(p.perez(c, cosTheta, cosGamma, gamma)/float64(p.Norm[c]))
	}
	return out
}

// Radiance returns the linear RGB sky colour along dir, scaled into the HDR range.
func (p Preetham) Radiance(dir mgl32.Vec3) mgl32.Vec3 {
	return yxyToRGB(p.Yxy(dir)).Mul(skyLuminanceScale * p.Fade)
}

// Ambient averages the upper hemisphere radiance, an approximation of the irradiance
// seen by an upward facing surface.
func (p Preetham) Ambient() mgl32.Vec3 {
	var sum mgl32.Vec3
	elevations := []float64{10, 35, 60, 85}
	for _, el := range elevations {
		sum = sum.Add(p.ring(el))
	}
	return sum.Mul(1 / float32(len(elevations)))
}

// Horizon averages the radiance 10 degrees above the horizon.
func (p Preetham) Horizon() mgl32.Vec3 { return p.ring(10) }

// ring averages the radiance of eight directions at one elevation in degrees.
func (p Preetham) ring(elevation float64) mgl32.Vec3 {
	var sum mgl32.Vec3
	el := elevation * math.Pi / 180
	for i := 0; i < 8; i++ {
		az := float64(i) * math.Pi / 4
		dir := mgl32.Vec3{
			float32(math.Cos(el) * math.Cos(az)),
			float32(math.Sin(el)),
			float32(math.Cos(el) * math.Sin(az)),
		}
		sum = sum.Add(p.Radiance(dir))
	}
	return sum.Mul(1.0 / 8)
}

// yxyToRGB converts CIE Yxy to linear sRGB, clamping negative channels.
func yxyToRGB(c mgl32.Vec3) mgl32.Vec3 {
	Y, x, y := float64(c[0]), float64(c[1]), float64(c[2])
	if y <= 0 {
		return mgl32.Vec3{}
	}
	X := x / y * Y
	Z := (1 - x - y) / y * Y
	return mgl32.Vec3{
		float32(max(3.2406*X-1.5372*Y-0.4986*Z, 0)),
		float32(max(-0.9689*X+1.8758*Y+0.0415*Z, 0)),
		float32(max(0.0557*X-0.2040*Y+1.0570*Z, 0)),
	}
}

func clamp(v, lo, hi float64) float64 { return min(max(v, lo), hi) }

func smoothstep(edge0, edge1, x float64) float64 {
	t := clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
