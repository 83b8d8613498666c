// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// Source is a vertex/fragment pair.
type Source struct {
	Vertex   string
	Fragment string
}

//go:embed fullscreen.vert
var fullscreenVertex string

//go:embed geometry_static.vert
var geometryStaticVertex string

//go:embed geometry_dynamic.vert
var geometryDynamicVertex string

//go:embed geometry.frag
var geometryFragment string

//go:embed shadow.vert
var shadowVertex string

//go:embed shadow.frag
var shadowFragment string

//go:embed blur_horizontal.frag
var blurHorizontalFragment string

//go:embed blur_vertical.frag
var blurVerticalFragment string

//go:embed deferred_common.glsl
var deferredCommon string

//go:embed deferred_ambient.frag
var ambientFragment string

//go:embed deferred_directional.frag
var directionalFragment string

//go:embed deferred_directional_shadowed.frag
var directionalShadowedFragment string

//go:embed deferred_point.frag
var pointFragment string

//go:embed deferred_spot.frag
var spotFragment string

//go:embed sky.frag
var skyFragment string

//go:embed post_hdr.frag
var postHDRFragment string

//go:embed post_grid.frag
var postGridFragment string

//go:embed post_outline.frag
var postOutlineFragment string

// deferred prefixes a lighting subpass body with the version line and the shared G-buffer code.
func deferred(body string) string {
	return "#version 410 core\n" + deferredCommon + body
}

// Library maps program names to their sources.
var Library = map[string]Source{
	"geometry_static":               {geometryStaticVertex, geometryFragment},
	"geometry_dynamic":              {geometryDynamicVertex, geometryFragment},
	"shadow":                        {shadowVertex, shadowFragment},
	"blur_horizontal":               {fullscreenVertex, blurHorizontalFragment},
	"blur_vertical":                 {fullscreenVertex, blurVerticalFragment},
	"deferred_ambient":              {fullscreenVertex, deferred(ambientFragment)},
	"deferred_directional":          {fullscreenVertex, deferred(directionalFragment)},
	"deferred_directional_shadowed": {fullscreenVertex, deferred(directionalShadowedFragment)},
	"deferred_point":                {fullscreenVertex, deferred(pointFragment)},
	"deferred_spot":                 {fullscreenVertex, deferred(spotFragment)},
	"sky":                           {fullscreenVertex, skyFragment},
	"post_hdr":                      {fullscreenVertex, postHDRFragment},
	"post_grid":                     {fullscreenVertex, postGridFragment},
	"post_outline":                  {fullscreenVertex, postOutlineFragment},
}
