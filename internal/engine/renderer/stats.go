package renderer

import "time"

// PassTime is the CPU time one pass spent recording commands.
type PassTime struct {
	Pass     PassID
	Duration time.Duration
}

// Stats are the renderer's per-frame counters. They are reset when a frame begins.
type Stats struct {
	// DrawCalls and Instances count geometry pass draws.
	DrawCalls int
	Instances int

	// TrianglesSubmitted counts every submesh that reached the cull test.
	TrianglesSubmitted int
	// TrianglesDrawn counts triangles of issued draws, instances included.
	TrianglesDrawn int

	Entities      int
	StaticBatches int
	DynamicDraws  int
	ShadowCasters int

	DirectionalLights int
	PointLights       int
	SpotLights        int

	PassTimes []PassTime
	FrameTime time.Duration
}

// Reset zeroes every counter, keeping the timing slice's storage.
func (s *Stats) Reset() {
	times := s.PassTimes[:0]
	*s = Stats{PassTimes: times}
}

// PassTime returns the recorded duration of a pass for this frame.
func (s *Stats) PassTime(id PassID) time.Duration {
	for _, pt := range s.PassTimes {
		if pt.Pass == id {
			return pt.Duration
		}
	}
	return 0
}

func (s *Stats) addPassTime(id PassID, d time.Duration) {
	for i := range s.PassTimes {
		if s.PassTimes[i].Pass == id {
			s.PassTimes[i].Duration += d
			return
		}
	}
	s.PassTimes = append(s.PassTimes, PassTime{Pass: id, Duration: d})
}
