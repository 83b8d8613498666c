package renderer

// MaxCascades is the number of cascade slots the lighting shader can sample.
const MaxCascades = 4

// ToneMap selects the HDR to LDR operator of the post pass.
type ToneMap string

const (
	ToneMapNone       ToneMap = "none"
	ToneMapReinhard   ToneMap = "reinhard"
	ToneMapACES       ToneMap = "aces"
	ToneMapUncharted2 ToneMap = "uncharted2"
)

// ToneMaps lists the operators in shader index order.
var ToneMaps = []ToneMap{ToneMapNone, ToneMapReinhard, ToneMapACES, ToneMapUncharted2}

// index is the operator's value for the uToneMap uniform.
func (t ToneMap) index() int32 {
	for i, m := range ToneMaps {
		if m == t {
			return int32(i)
		}
	}
	return 2
}

// SkyModel selects how the environment draws the sky.
type SkyModel string

const (
	// SkyGradient blends fixed zenith, horizon and ground colours.
	SkyGradient SkyModel = "gradient"
	// SkyPreetham is the analytic daylight model driven by the primary light.
	SkyPreetham SkyModel = "preetham"
)

// SkyModels lists the sky models in shader index order.
var SkyModels = []SkyModel{SkyGradient, SkyPreetham}

// SkySettings drive the environment. SunSize, SunIntensity and SkyIntensity apply to every model.
type SkySettings struct {
	Model SkyModel `yaml:"model"`
	// Turbidity is the Preetham haze, from 1.7 (clear) to 10 (hazy).
	Turbidity float32 `yaml:"turbidity"`
	// SunSize scales the sun disc relative to the real sun.
	SunSize      float32 `yaml:"sun_size"`
	SunIntensity float32 `yaml:"sun_intensity"`
	// SkyIntensity scales the sky and the ambient light derived from it.
	SkyIntensity float32 `yaml:"sky_intensity"`
}

// Settings are read by the passes every frame. Changes apply on the next frame,
// except CascadeSize which recreates the shadow buffers.
type Settings struct {
	FrustumCull bool `yaml:"frustum_cull"`

	CascadeCount      int     `yaml:"cascade_count"`
	CascadeLambda     float32 `yaml:"cascade_lambda"`
	CascadeSize       int     `yaml:"cascade_size"`
	CascadeLightBleed float32 `yaml:"cascade_light_bleed"`
	LightSize         float32 `yaml:"light_size"`
	PCFRadius         float32 `yaml:"pcf_radius"`
	NormalDepthBias   float32 `yaml:"normal_depth_bias"`
	ConstDepthBias    float32 `yaml:"const_depth_bias"`

	ToneMap  ToneMap `yaml:"tone_map"`
	Exposure float32 `yaml:"exposure"`
	Gamma    float32 `yaml:"gamma"`
	UseFXAA  bool    `yaml:"use_fxaa"`

	DrawGrid    bool `yaml:"draw_grid"`
	DrawOutline bool `yaml:"draw_outline"`

	Sky SkySettings `yaml:"sky"`
}

// DefaultSettings returns the editor's starting configuration.
func DefaultSettings() Settings {
	return Settings{
		FrustumCull:       true,
		CascadeCount:      MaxCascades,
		CascadeLambda:     0.5,
		CascadeSize:       2048,
		CascadeLightBleed: 0.3,
		LightSize:         1,
		PCFRadius:         1,
		NormalDepthBias:   0.02,
		ConstDepthBias:    0.001,
		ToneMap:           ToneMapACES,
		Exposure:          1,
		Gamma:             2.2,
		UseFXAA:           true,
		DrawGrid:          true,
		DrawOutline:       true,
		Sky: SkySettings{
			Model:        SkyPreetham,
			Turbidity:    2,
			SunSize:      1,
			SunIntensity: 1,
			SkyIntensity: 1,
		},
	}
}

// Validate clamps out-of-range values in place.
func (s *Settings) Validate() {
	s.CascadeCount = min(max(s.CascadeCount, 1), MaxCascades)
	s.CascadeLambda = min(max(s.CascadeLambda, 0), 1)
	if s.CascadeSize < 64 {
		s.CascadeSize = 64
	}
	s.CascadeSize = min(s.CascadeSize, 8192)
	s.CascadeLightBleed = min(max(s.CascadeLightBleed, 0), 0.99)
	s.LightSize = max(s.LightSize, 0)
	s.PCFRadius = max(s.PCFRadius, 0)
	if s.Exposure <= 0 {
		s.Exposure = 1
	}
	if s.Gamma <= 0 {
		s.Gamma = 2.2
	}
	switch s.ToneMap {
	case ToneMapNone, ToneMapReinhard, ToneMapACES, ToneMapUncharted2:
	default:
		s.ToneMap = ToneMapACES
	}
	switch s.Sky.Model {
	case SkyGradient, SkyPreetham:
	default:
		s.Sky.Model = SkyPreetham
	}
	s.Sky.Turbidity = min(max(s.Sky.Turbidity, 1.7), 10)
	if s.Sky.SunSize <= 0 {
		s.Sky.SunSize = 1
	}
	s.Sky.SunIntensity = max(s.Sky.SunIntensity, 0)
	s.Sky.SkyIntensity = max(s.Sky.SkyIntensity, 0)
}
