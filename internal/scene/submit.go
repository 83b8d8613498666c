package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/model"
)

// Renderer receives a frame's submissions.
type Renderer interface {
	Submit(m *model.Model, mats *material.Set, transform mgl32.Mat4, id uint32, selected bool)
	SubmitAnimated(m *model.Model, anim model.Animator, mats *material.Set, transform mgl32.Mat4, id uint32, selected bool)
	SubmitDirectional(light lighting.DirectionalLight, transform mgl32.Mat4)
	SubmitPoint(light lighting.PointLight, transform mgl32.Mat4)
	SubmitSpot(light lighting.SpotLight, transform mgl32.Mat4)
}

// Submit sends every renderable and light to r. The entity whose id equals
// selected is drawn with the selection outline; zero selects nothing.
func (s *Scene) Submit(r Renderer, selected EntityID) {
	for _, e := range s.entities {
		transform := e.Transform.Matrix()
		if rd := e.Renderable; rd != nil && rd.Model != nil {
			id := uint32(e.ID)
			sel := selected != 0 && e.ID == selected
			if rd.Animator != nil {
				r.SubmitAnimated(rd.Model, rd.Animator, rd.Materials, transform, id, sel)
			} else {
				r.Submit(rd.Model, rd.Materials, transform, id, sel)
			}
		}
		if e.DirectionalLight != nil {
			r.SubmitDirectional(*e.DirectionalLight, transform)
		}
		if e.PointLight != nil {
			r.SubmitPoint(*e.PointLight, transform)
		}
		if e.SpotLight != nil {
			r.SubmitSpot(*e.SpotLight, transform)
		}
	}
}
