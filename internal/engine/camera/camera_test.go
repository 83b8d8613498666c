package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestOrbitPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = mgl32.Vec3{1, 2, 3}
	c.Distance = 5
	c.RotationX = 0
	c.RotationY = 0

	got := c.Position()
	want := mgl32.Vec3{1, 2, 8}
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("Position: got %v, want %v", got, want)
	}
}

func TestSnapshotLooksAtCenter(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = mgl32.Vec3{4, 0, -2}
	snap := c.Snapshot(1280, 720)

	clip := snap.ViewProjection().Mul4x1(c.Center.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip[3])
	if !ndc.Vec2().ApproxEqualThreshold(mgl32.Vec2{}, 1e-4) {
		t.Errorf("center should project to screen centre, got %v", ndc)
	}
	if snap.Near != c.Near || snap.Far != c.Far {
		t.Errorf("near/far: got %v/%v, want %v/%v", snap.Near, snap.Far, c.Near, c.Far)
	}

	round := snap.InvViewProjection().Mul4(snap.ViewProjection())
	if !round.ApproxEqualThreshold(mgl32.Ident4(), 1e-3) {
		t.Errorf("InvViewProjection is not the inverse: %v", round)
	}
}

func TestClamps(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.RotationX != c.MaxPitch {
		t.Errorf("pitch: got %v, want %v", c.RotationX, c.MaxPitch)
	}
	c.HandleZoom(100)
	if c.Distance != c.MinDistance {
		t.Errorf("zoom in: got %v, want %v", c.Distance, c.MinDistance)
	}
	c.HandleZoom(-1e6)
	if c.Distance != c.MaxDistance {
		t.Errorf("zoom out: got %v, want %v", c.Distance, c.MaxDistance)
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(mgl32.Vec3{-2, 0, -2}, mgl32.Vec3{2, 2, 2})
	if !c.Center.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("center: got %v", c.Center)
	}
	if c.Distance <= 3 {
		t.Errorf("distance %v too small to frame the box", c.Distance)
	}
}

func TestHandlePanMovesCenter(t *testing.T) {
	c := NewOrbitCamera()
	before := c.Center
	c.HandlePan(100, 0)
	if c.Center.ApproxEqual(before) {
		t.Error("pan did not move the center")
	}
	if d := c.Center.Sub(before); absf(d[1]) > 1e-4 && c.RotationX == 0 {
		t.Errorf("horizontal pan at zero pitch moved vertically: %v", d)
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
