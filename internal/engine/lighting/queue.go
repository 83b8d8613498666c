package lighting

// Queue holds the lights submitted for one frame.
type Queue struct {
	Directional []DirectionalLight
	Point       []PointLight
	Spot        []SpotLight
}

// Reset empties every list, keeping capacity for the next frame.
func (q *Queue) Reset() {
	q.Directional = q.Directional[:0]
	q.Point = q.Point[:0]
	q.Spot = q.Spot[:0]
}

// Len returns the total number of queued lights.
func (q *Queue) Len() int {
	return len(q.Directional) + len(q.Point) + len(q.Spot)
}

// HasPrimaryShadowCaster reports whether a directional light casts shadows and is primary.
func (q *Queue) HasPrimaryShadowCaster() bool {
	for _, l := range q.Directional {
		if l.CastShadows && l.Primary {
			return true
		}
	}
	return false
}
