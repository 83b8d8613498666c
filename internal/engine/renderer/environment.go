package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/logger"
)

// Texture units of the image based lighting inputs in the ambient program.
const (
	irradianceUnit = 0
	prefilterUnit  = 1
	brdfUnit       = 2
)

const brdfLUTSize = 32

// Environment supplies ambient lighting and draws the background.
type Environment interface {
	Init(dev gpu.Device) error
	// BindIBL binds irradiance, prefilter and BRDF lookup textures and the ambient intensity.
	// sun points towards the frame's sun.
	BindIBL(ctx *FrameContext, prog gpu.Program, sun mgl32.Vec3)
	// DrawSky draws the background into the bound target. Depth testing is set up by the caller.
	DrawSky(ctx *FrameContext, sun mgl32.Vec3)
	Destroy()
}

// sunAngularRadius is the sun's real angular radius in radians; SkySettings.SunSize scales it.
const sunAngularRadius = 0.00465

// SkyEnvironment draws the sky model chosen by Settings.Sky with a sun disc.
// Its ambient light comes from solid cubemaps of the sky colours, rebuilt when the sky changes.
type SkyEnvironment struct {
	// Gradient sky colours. Ground also fills the Preetham sky below the horizon.
	Zenith  mgl32.Vec3
	Horizon mgl32.Vec3
	Ground  mgl32.Vec3

	dev        gpu.Device
	irradiance gpu.Texture
	prefilter  gpu.Texture
	brdf       gpu.Texture
	sky        gpu.Program

	// key identifies the sky the cubemaps were built for.
	key      skyKey
	preetham Preetham
	log      *zap.Logger
}

type skyKey struct {
	model     SkyModel
	sun       mgl32.Vec3
	turbidity float32
}

// NewSkyEnvironment returns a daylight sky.
func NewSkyEnvironment() *SkyEnvironment {
	return &SkyEnvironment{
		Zenith:  mgl32.Vec3{0.18, 0.36, 0.75},
		Horizon: mgl32.Vec3{0.70, 0.78, 0.90},
		Ground:  mgl32.Vec3{0.25, 0.23, 0.21},
	}
}

// Init uploads the BRDF lookup table. The ambient cubemaps are built on first use.
func (e *SkyEnvironment) Init(dev gpu.Device) error {
	e.dev = dev
	e.log = logger.Named("renderer")
	var err error
	if e.brdf, err = dev.NewTexture2D(brdfLUT(brdfLUTSize)); err != nil {
		return fmt.Errorf("brdf lut: %w", err)
	}
	if e.sky, err = dev.Program("sky"); err != nil {
		return err
	}
	return nil
}

// BindIBL rebuilds the ambient cubemaps if the sky changed, then binds them to prog.
func (e *SkyEnvironment) BindIBL(ctx *FrameContext, prog gpu.Program, sun mgl32.Vec3) {
	if err := e.update(ctx.Settings.Sky, sun); err != nil {
		e.log.Warn("sky ambient maps not rebuilt", zap.Error(err))
	}
	if e.irradiance == nil {
		prog.SetFloat("uIntensity", 0)
		return
	}
	e.irradiance.Bind(irradianceUnit)
	e.prefilter.Bind(prefilterUnit)
	e.brdf.Bind(brdfUnit)
	prog.SetInt("uIrradiance", irradianceUnit)
	prog.SetInt("uPrefilter", prefilterUnit)
	prog.SetInt("uBRDF", brdfUnit)
	prog.SetFloat("uIntensity", ctx.Settings.Sky.SkyIntensity)
}

// update recomputes the sky for sun and rebuilds the cubemaps when the sky changed.
// Sun moves under a thousandth of a radian keep the current maps.
func (e *SkyEnvironment) update(s SkySettings, sun mgl32.Vec3) error {
	if sun.Len() == 0 {
		sun = mgl32.Vec3{0, 1, 0}
	}
	key := skyKey{model: s.Model, sun: sun.Normalize(), turbidity: s.Turbidity}
	if e.irradiance != nil && key.model == e.key.model && key.turbidity == e.key.turbidity &&
		(key.model == SkyGradient || key.sun.Dot(e.key.sun) > 0.9999995) {
		return nil
	}

	ambient, horizon := e.Zenith.Add(e.Horizon).Add(e.Ground).Mul(1.0/3), e.Horizon
	if key.model == SkyPreetham {
		e.preetham = NewPreetham(key.sun, key.turbidity)
		up := e.preetham.Ambient()
		ambient = up.Add(e.Ground.Mul(e.preetham.Fade)).Mul(0.5)
		horizon = e.preetham.Horizon()
	}

	irradiance, err := e.dev.NewSolidCubemap(ambient)
	if err != nil {
		return fmt.Errorf("irradiance map: %w", err)
	}
	prefilter, err := e.dev.NewSolidCubemap(horizon)
	if err != nil {
		irradiance.Destroy()
		return fmt.Errorf("prefilter map: %w", err)
	}
	e.destroyCubemaps()
	e.irradiance, e.prefilter, e.key = irradiance, prefilter, key
	return nil
}

// DrawSky fills every pixel left at the far plane with the sky.
func (e *SkyEnvironment) DrawSky(ctx *FrameContext, sun mgl32.Vec3) {
	s := ctx.Settings.Sky
	e.sky.Bind()
	e.sky.SetMat4("uInvViewProj", ctx.InvViewProj)
	e.sky.SetVec3("uCameraPosition", ctx.Camera.Position)
	e.sky.SetVec3("uSunDirection", sun)
	e.sky.SetVec3("uGround", e.Ground)
	e.sky.SetFloat("uIntensity", s.SkyIntensity)
	e.sky.SetVec4("uSun", mgl32.Vec4{
		float32(math.Cos(sunAngularRadius * float64(s.SunSize))),
		s.SunIntensity,
		0, 0,
	})
	if s.Model == SkyPreetham {
		p := e.preetham
		if e.key.model != SkyPreetham {
			p = NewPreetham(sun, s.Turbidity)
		}
		e.sky.SetInt("uSkyModel", 1)
		for i, coeff := range p.Perez {
			e.sky.SetVec3(perezUniforms[i], coeff)
		}
		e.sky.SetVec3("uZenithYxy", p.Zenith)
		e.sky.SetVec3("uPerezNorm", p.Norm)
		e.sky.SetFloat("uSkyScale", skyLuminanceScale*p.Fade)
	} else {
		e.sky.SetInt("uSkyModel", 0)
		e.sky.SetVec3("uZenith", e.Zenith)
		e.sky.SetVec3("uHorizon", e.Horizon)
	}
	ctx.Device.DrawFullscreen()
}

var perezUniforms = [5]string{"uPerez[0]", "uPerez[1]", "uPerez[2]", "uPerez[3]", "uPerez[4]"}

func (e *SkyEnvironment) destroyCubemaps() {
	if e.irradiance != nil {
		e.irradiance.Destroy()
	}
	if e.prefilter != nil {
		e.prefilter.Destroy()
	}
	e.irradiance, e.prefilter = nil, nil
}

// Destroy releases the image-based lighting textures.
func (e *SkyEnvironment) Destroy() {
	e.destroyCubemaps()
	if e.brdf != nil {
		e.brdf.Destroy()
		e.brdf = nil
	}
}

// brdfLUT approximates the split-sum environment BRDF (scale in R, bias in G),
// indexed by N.V on x and roughness on y.
func brdfLUT(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		roughness := (float64(y) + 0.5) / float64(size)
		for x := 0; x < size; x++ {
			nv := (float64(x) + 0.5) / float64(size)
			scale, bias := envBRDFApprox(nv, roughness)
			img.Set(x, y, color.RGBA{
				R: uint8(math.Round(min(max(scale, 0), 1) * 255)),
				G: uint8(math.Round(min(max(bias, 0), 1) * 255)),
				A: 255,
			})
		}
	}
	return img
}

// envBRDFApprox is Karis' analytical fit of the environment BRDF.
func envBRDFApprox(nv, roughness float64) (scale, bias float64) {
	c0 := [4]float64{-1, -0.0275, -0.572, 0.022}
	c1 := [4]float64{1, 0.0425, 1.04, -0.04}
	r := [4]float64{}
	for i := range r {
		r[i] = roughness*c0[i] + c1[i]
	}
	a004 := min(r[0]*r[0], math.Exp2(-9.28*nv))*r[0] + r[1]
	scale = a004*-1.04 + r[2]
	bias = a004*1.04 + r[3]
	return scale, bias
}
