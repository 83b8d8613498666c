package scene

// Playing reports whether the scene is in play state.
func (s *Scene) Playing() bool { return s.playing }

// Play snapshots every entity and enters play state. It is a no-op while playing.
func (s *Scene) Play() {
	if s.playing {
		return
	}
	s.snapshot = make([]Entity, 0, len(s.entities))
	s.animTime = make(map[EntityID]float32)
	for _, e := range s.entities {
		s.snapshot = append(s.snapshot, e.clone())
		if e.Renderable != nil && e.Renderable.Animator != nil {
			s.animTime[e.ID] = e.Renderable.Animator.Time()
		}
	}
	s.playing = true
}

// Stop restores the entities captured by Play, discarding any changes made while playing.
func (s *Scene) Stop() {
	if !s.playing {
		return
	}
	s.entities = s.entities[:0]
	s.byID = make(map[EntityID]*Entity, len(s.snapshot))
	for i := range s.snapshot {
		e := s.snapshot[i].clone()
		if e.Renderable != nil && e.Renderable.Animator != nil {
			e.Renderable.Animator.SetTime(s.animTime[e.ID])
		}
		s.entities = append(s.entities, &e)
		s.byID[e.ID] = &e
	}
	s.snapshot = nil
	s.animTime = nil
	s.playing = false
}

// Update advances spin behaviours and animations by dt seconds while playing.
func (s *Scene) Update(dt float32) {
	if !s.playing {
		return
	}
	for _, e := range s.entities {
		if e.Spin != nil && e.Spin.Axis.Len() > 0 {
			axis := e.Spin.Axis.Normalize()
			e.Transform.Rotation = e.Transform.Rotation.Add(axis.Mul(e.Spin.Speed * dt))
			for k := 0; k < 3; k++ {
				e.Transform.Rotation[k] = wrapDegrees(e.Transform.Rotation[k])
			}
		}
		if e.Renderable != nil && e.Renderable.Animator != nil {
			e.Renderable.Animator.Update(dt)
		}
	}
}

// clone copies the entity and its value components. Models, material sets and
// animators are shared.
func (e *Entity) clone() Entity {
	c := *e
	if e.Renderable != nil {
		r := *e.Renderable
		c.Renderable = &r
	}
	if e.DirectionalLight != nil {
		l := *e.DirectionalLight
		c.DirectionalLight = &l
	}
	if e.PointLight != nil {
		l := *e.PointLight
		c.PointLight = &l
	}
	if e.SpotLight != nil {
		l := *e.SpotLight
		c.SpotLight = &l
	}
	if e.Spin != nil {
		sp := *e.Spin
		c.Spin = &sp
	}
	return c
}

func wrapDegrees(a float32) float32 {
	for a >= 360 {
		a -= 360
	}
	for a < 0 {
		a += 360
	}
	return a
}

