package ui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/editor"
	"github.com/Faultbox/prism/internal/engine/capture"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/renderer"
	"github.com/Faultbox/prism/internal/logger"
	"github.com/Faultbox/prism/internal/scene"
)

type dialogKind int

const (
	dialogOpen dialogKind = iota
	dialogSave
)

// pixelReader is implemented by devices that can read back a framebuffer.
type pixelReader interface {
	ReadPixels(fb gpu.Framebuffer) ([]byte, int, int)
}

type dialogResult struct {
	kind dialogKind
	path string
}

// Panels draws the editor layout: menu bar, scene list, viewport, inspector,
// renderer settings, statistics and status bar.
type Panels struct {
	Editor   *editor.Editor
	Renderer *renderer.Renderer
	Device   gpu.Device
	// Quit is called from File > Exit.
	Quit      func()
	ShowStats bool
	// Capture receives viewport screenshots; nil disables them.
	Capture *capture.Capture
	// SaveSettings persists renderer settings as the startup default; nil hides the button.
	SaveSettings func(renderer.Settings) error

	viewport  editor.Viewport
	dialogs   chan dialogResult
	lastMouse imgui.Vec2
	lastFrame time.Time
	status    string
	statusAt  time.Time
	log       *zap.Logger
}

// NewPanels creates the editor panels.
func NewPanels(e *editor.Editor, r *renderer.Renderer, dev gpu.Device) *Panels {
	return &Panels{
		Editor:    e,
		Renderer:  r,
		Device:    dev,
		ShowStats: true,
		dialogs:   make(chan dialogResult, 1),
		log:       logger.Named("editor"),
	}
}

// Draw renders one editor frame. Call it from Backend.Run.
func (p *Panels) Draw() {
	now := time.Now()
	dt := float32(0)
	if !p.lastFrame.IsZero() {
		dt = float32(now.Sub(p.lastFrame).Seconds())
	}
	p.lastFrame = now

	p.handleDialogs()
	p.handleShortcuts()
	p.drawMenuBar()

	viewport := imgui.MainViewport()
	workPos := viewport.WorkPos()
	workSize := viewport.WorkSize()

	leftPanelWidth := float32(260)
	rightPanelWidth := float32(320)
	statusBarHeight := float32(30)
	contentHeight := workSize.Y - statusBarHeight
	centerWidth := workSize.X - leftPanelWidth - rightPanelWidth

	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse

	imgui.SetNextWindowPos(workPos)
	imgui.SetNextWindowSize(imgui.NewVec2(leftPanelWidth, contentHeight))
	if imgui.BeginV("Scene", nil, flags) {
		p.drawSceneList()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+leftPanelWidth, workPos.Y))
	imgui.SetNextWindowSize(imgui.NewVec2(centerWidth, contentHeight))
	if imgui.BeginV("Viewport", nil, flags|imgui.WindowFlagsNoScrollbar) {
		p.drawViewport(dt)
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+leftPanelWidth+centerWidth, workPos.Y))
	imgui.SetNextWindowSize(imgui.NewVec2(rightPanelWidth, contentHeight))
	if imgui.BeginV("Properties", nil, flags) {
		p.drawInspector()
		imgui.Separator()
		p.drawRendererSettings()
		if p.ShowStats {
			imgui.Separator()
			p.drawStats()
		}
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X, workPos.Y+contentHeight))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X, statusBarHeight))
	if imgui.BeginV("##StatusBar", nil, flags|imgui.WindowFlagsNoTitleBar|imgui.WindowFlagsNoScrollbar) {
		p.drawStatusBar()
	}
	imgui.End()
}

func (p *Panels) drawMenuBar() {
	e := p.Editor
	if !imgui.BeginMainMenuBar() {
		return
	}
	if imgui.BeginMenu("File") {
		if imgui.MenuItemBool("New Scene") {
			e.NewScene()
		}
		if imgui.MenuItemBool("Open...") {
			p.showDialog(dialogOpen)
		}
		if imgui.MenuItemBool("Save") {
			if e.Path == "" {
				p.showDialog(dialogSave)
			} else {
				p.report(e.Save(""), "saved "+e.Path)
			}
		}
		if imgui.MenuItemBool("Save As...") {
			p.showDialog(dialogSave)
		}
		if imgui.MenuItemBool("Screenshot") {
			p.screenshot()
		}
		imgui.Separator()
		if imgui.MenuItemBool("Exit") && p.Quit != nil {
			p.Quit()
		}
		imgui.EndMenu()
	}
	if imgui.BeginMenu("Add") {
		for _, kind := range []string{"cube", "plane", "sphere", "column"} {
			if imgui.MenuItemBool("Primitive: " + kind) {
				e.AddPrimitive(kind)
			}
		}
		imgui.Separator()
		if imgui.MenuItemBool("Directional Light") {
			e.AddDirectionalLight()
		}
		if imgui.MenuItemBool("Point Light") {
			e.AddPointLight()
		}
		if imgui.MenuItemBool("Spot Light") {
			e.AddSpotLight()
		}
		imgui.EndMenu()
	}
	label := "Play"
	if e.Scene.Playing() {
		label = "Stop"
	}
	if imgui.MenuItemBool(label) {
		e.TogglePlay()
	}
	imgui.EndMainMenuBar()
}

func (p *Panels) handleShortcuts() {
	if imgui.IsAnyItemActive() {
		return
	}
	if IsKeyPressed(imgui.KeyDelete) {
		p.report(p.Editor.DeleteSelected(), "entity deleted")
	}
	if IsKeyPressed(imgui.KeyF5) {
		p.Editor.TogglePlay()
	}
	if IsKeyPressed(imgui.KeyEscape) {
		p.Editor.Select(0)
	}
	if IsKeyPressed(imgui.KeyF12) {
		p.screenshot()
	}
}

// screenshot saves the last rendered viewport frame.
func (p *Panels) screenshot() {
	reader, ok := p.Device.(pixelReader)
	fb := p.viewport.Framebuffer()
	if !ok || p.Capture == nil || fb == nil {
		return
	}
	pixels, w, h := reader.ReadPixels(fb)
	path, err := p.Capture.SavePixels(pixels, w, h)
	if err == nil {
		p.log.Info("screenshot saved", zap.String("path", path))
	}
	p.report(err, "screenshot "+filepath.Base(path))
}

// showDialog opens a native file dialog off the UI thread. The result is
// applied by handleDialogs on the next frame.
func (p *Panels) showDialog(kind dialogKind) {
	go func() {
		b := dialog.File().Filter("Scene files", "yaml", "yml").Filter("All Files", "*")
		var path string
		var err error
		if kind == dialogOpen {
			path, err = b.Title("Open Scene").Load()
		} else {
			path, err = b.Title("Save Scene").Save()
		}
		if err != nil {
			if err != dialog.ErrCancelled {
				p.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case p.dialogs <- dialogResult{kind: kind, path: path}:
		default:
		}
	}()
}

func (p *Panels) handleDialogs() {
	select {
	case res := <-p.dialogs:
		switch res.kind {
		case dialogOpen:
			p.report(p.Editor.Open(res.path), "opened "+filepath.Base(res.path))
		case dialogSave:
			if filepath.Ext(res.path) == "" {
				res.path += ".yaml"
			}
			p.report(p.Editor.Save(res.path), "saved "+filepath.Base(res.path))
		}
	default:
	}
}

func (p *Panels) report(err error, ok string) {
	p.statusAt = time.Now()
	if err != nil {
		p.status = err.Error()
		return
	}
	p.status = ok
}

func (p *Panels) drawSceneList() {
	e := p.Editor
	imgui.Text(e.Scene.Name)
	if e.Scene.Playing() {
		imgui.SameLine()
		imgui.TextColored(imgui.NewVec4(0.4, 0.8, 0.4, 1), "(playing)")
	}
	imgui.Separator()

	for _, ent := range e.Scene.Entities() {
		label := fmt.Sprintf("%s##%d", ent.Name, ent.ID)
		if ent.DirectionalLight != nil && ent.DirectionalLight.Primary {
			label = fmt.Sprintf("%s [primary]##%d", ent.Name, ent.ID)
		}
		if imgui.SelectableBoolV(label, ent.ID == e.Selected, 0, imgui.NewVec2(0, 0)) {
			e.Select(ent.ID)
		}
	}
}

func (p *Panels) drawViewport(dt float32) {
	avail := imgui.ContentRegionAvail()
	w, h := int(avail.X), int(avail.Y)
	if w <= 0 || h <= 0 {
		return
	}
	if err := p.viewport.Ensure(p.Device, w, h); err != nil {
		p.log.Error("viewport unavailable", zap.Error(err))
		return
	}
	p.viewport.Render(p.Editor, p.Renderer, p.Device, dt)

	origin := imgui.CursorScreenPos()
	size := imgui.NewVec2(float32(w), float32(h))
	texRef := imgui.NewTextureRefTextureID(imgui.TextureID(p.viewport.TextureID()))
	imgui.ImageWithBgV(
		*texRef,
		size,
		imgui.NewVec2(0, 1), // UV flipped
		imgui.NewVec2(1, 0),
		imgui.NewVec4(0, 0, 0, 1),
		imgui.NewVec4(1, 1, 1, 1),
	)

	if !imgui.IsItemHovered() {
		return
	}
	mousePos := imgui.MousePos()
	cam := p.Editor.Camera
	if imgui.IsMouseDragging(imgui.MouseButtonLeft) {
		cam.HandleDrag(mousePos.X-p.lastMouse.X, mousePos.Y-p.lastMouse.Y)
	} else if imgui.IsMouseDragging(imgui.MouseButtonRight) {
		cam.HandlePan(mousePos.X-p.lastMouse.X, mousePos.Y-p.lastMouse.Y)
	} else if imgui.IsItemClicked() {
		if x, y, ok := p.viewport.Pixel(mousePos.X-origin.X, mousePos.Y-origin.Y, size.X, size.Y); ok {
			p.Editor.Pick(p.Renderer, x, y)
		}
	} else if imgui.IsMouseClickedBool(imgui.MouseButtonMiddle) {
		p.Editor.FocusAt(mousePos.X-origin.X, mousePos.Y-origin.Y, w, h)
	}
	p.lastMouse = mousePos

	if wheel := imgui.CurrentIO().MouseWheel(); wheel != 0 {
		cam.HandleZoom(wheel)
	}
}

func (p *Panels) drawInspector() {
	e := p.Editor
	ent := e.SelectedEntity()
	if ent == nil {
		imgui.TextDisabled("No entity selected")
		return
	}

	imgui.Text(ent.Name)
	imgui.TextDisabled(fmt.Sprintf("id %d", ent.ID))
	if imgui.TreeNodeExStrV("Transform", imgui.TreeNodeFlagsDefaultOpen) {
		imgui.DragFloat3V("Position", (*[3]float32)(&ent.Transform.Translation), 0.05, 0, 0, "%.2f", imgui.SliderFlagsNone)
		imgui.DragFloat3V("Rotation", (*[3]float32)(&ent.Transform.Rotation), 0.5, -360, 360, "%.1f", imgui.SliderFlagsNone)
		imgui.DragFloat3V("Scale", (*[3]float32)(&ent.Transform.Scale), 0.01, 0.01, 100, "%.2f", imgui.SliderFlagsNone)
		imgui.TreePop()
	}

	if r := ent.Renderable; r != nil && imgui.TreeNodeExStrV("Renderable", imgui.TreeNodeFlagsDefaultOpen) {
		imgui.Text("Model: " + r.ModelPath)
		if r.Model == nil {
			imgui.TextColored(imgui.NewVec4(0.9, 0.6, 0.2, 1), "not loaded")
		}
		if r.Materials != nil {
			for _, mesh := range r.Materials.Meshes() {
				m := r.Materials.Lookup(mesh)
				if m == nil || !imgui.TreeNodeExStrV("Material "+mesh, imgui.TreeNodeFlagsNone) {
					continue
				}
				imgui.ColorEdit3V("Albedo##"+mesh, (*[3]float32)(&m.Albedo), 0)
				imgui.SliderFloatV("Metallic##"+mesh, &m.Metallic, 0, 1, "%.2f", imgui.SliderFlagsNone)
				imgui.SliderFloatV("Roughness##"+mesh, &m.Roughness, 0.04, 1, "%.2f", imgui.SliderFlagsNone)
				imgui.SliderFloatV("AO##"+mesh, &m.AO, 0, 1, "%.2f", imgui.SliderFlagsNone)
				imgui.SliderFloatV("Emission##"+mesh, &m.Emission, 0, 10, "%.2f", imgui.SliderFlagsNone)
				imgui.TreePop()
			}
		}
		imgui.TreePop()
	}

	if l := ent.DirectionalLight; l != nil && imgui.TreeNodeExStrV("Directional Light", imgui.TreeNodeFlagsDefaultOpen) {
		imgui.ColorEdit3V("Color##dir", (*[3]float32)(&l.Color), 0)
		imgui.SliderFloatV("Intensity##dir", &l.Intensity, 0, 20, "%.2f", imgui.SliderFlagsNone)
		imgui.Checkbox("Cast Shadows", &l.CastShadows)
		if l.Primary {
			imgui.TextColored(imgui.NewVec4(0.4, 0.8, 0.4, 1), "Primary light")
		} else if imgui.Button("Make Primary") {
			p.report(e.Scene.SetPrimaryLight(ent.ID), ent.Name+" is the primary light")
		}
		imgui.TreePop()
	}

	if l := ent.PointLight; l != nil && imgui.TreeNodeExStrV("Point Light", imgui.TreeNodeFlagsDefaultOpen) {
		imgui.ColorEdit3V("Color##point", (*[3]float32)(&l.Color), 0)
		imgui.SliderFloatV("Intensity##point", &l.Intensity, 0, 50, "%.2f", imgui.SliderFlagsNone)
		imgui.SliderFloatV("Radius##point", &l.Radius, 0.1, 100, "%.1f", imgui.SliderFlagsNone)
		imgui.SliderFloatV("Falloff##point", &l.Falloff, 0, 4, "%.2f", imgui.SliderFlagsNone)
		imgui.TreePop()
	}

	if l := ent.SpotLight; l != nil && imgui.TreeNodeExStrV("Spot Light", imgui.TreeNodeFlagsDefaultOpen) {
		imgui.ColorEdit3V("Color##spot", (*[3]float32)(&l.Color), 0)
		imgui.SliderFloatV("Intensity##spot", &l.Intensity, 0, 50, "%.2f", imgui.SliderFlagsNone)
		imgui.SliderFloatV("Inner##spot", &l.InnerCutoff, 1, l.OuterCutoff, "%.1f deg", imgui.SliderFlagsNone)
		imgui.SliderFloatV("Outer##spot", &l.OuterCutoff, l.InnerCutoff, 89, "%.1f deg", imgui.SliderFlagsNone)
		imgui.SliderFloatV("Radius##spot", &l.Radius, 0.1, 100, "%.1f", imgui.SliderFlagsNone)
		imgui.TreePop()
	}

	if ent.Spin != nil && imgui.TreeNodeExStrV("Spin", imgui.TreeNodeFlagsDefaultOpen) {
		imgui.DragFloat3V("Axis", (*[3]float32)(&ent.Spin.Axis), 0.01, -1, 1, "%.2f", imgui.SliderFlagsNone)
		imgui.SliderFloatV("Speed", &ent.Spin.Speed, -360, 360, "%.0f deg/s", imgui.SliderFlagsNone)
		imgui.TreePop()
	} else if ent.Spin == nil && imgui.Button("Add Spin") {
		ent.Spin = &scene.Spin{Axis: mgl32.Vec3{0, 1, 0}, Speed: 45}
	}

	imgui.Spacing()
	if imgui.Button("Delete Entity") {
		p.report(e.DeleteSelected(), "entity deleted")
	}
}

func (p *Panels) drawRendererSettings() {
	if !imgui.TreeNodeExStrV("Renderer", imgui.TreeNodeFlagsNone) {
		return
	}
	s := p.Renderer.Settings()
	changed := false

	changed = imgui.Checkbox("Frustum Culling", &s.FrustumCull) || changed

	imgui.Text("Shadows")
	count := int32(s.CascadeCount)
	if imgui.SliderIntV("Cascades", &count, 1, renderer.MaxCascades, "%d", imgui.SliderFlagsNone) {
		s.CascadeCount = int(count)
		changed = true
	}
	size := int32(s.CascadeSize)
	if imgui.SliderIntV("Map Size", &size, 256, 4096, "%d", imgui.SliderFlagsNone) {
		s.CascadeSize = int(size)
		changed = true
	}
	changed = imgui.SliderFloatV("Split Lambda", &s.CascadeLambda, 0, 1, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Light Bleed", &s.CascadeLightBleed, 0, 0.99, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Light Size", &s.LightSize, 0, 8, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("PCF Radius", &s.PCFRadius, 0, 4, "%.1f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Normal Bias", &s.NormalDepthBias, 0, 0.2, "%.3f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Const Bias", &s.ConstDepthBias, 0, 0.01, "%.4f", imgui.SliderFlagsNone) || changed

	imgui.Text("Post")
	if imgui.BeginCombo("Tone Map", string(s.ToneMap)) {
		for _, tm := range renderer.ToneMaps {
			if imgui.SelectableBoolV(string(tm), tm == s.ToneMap, 0, imgui.NewVec2(0, 0)) {
				s.ToneMap = tm
				changed = true
			}
		}
		imgui.EndCombo()
	}
	changed = imgui.SliderFloatV("Exposure", &s.Exposure, 0.05, 8, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Gamma", &s.Gamma, 1, 3, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.Checkbox("FXAA", &s.UseFXAA) || changed
	changed = imgui.Checkbox("Grid", &s.DrawGrid) || changed
	changed = imgui.Checkbox("Selection Outline", &s.DrawOutline) || changed

	imgui.Text("Sky")
	if imgui.BeginCombo("Sky Model", string(s.Sky.Model)) {
		for _, m := range renderer.SkyModels {
			if imgui.SelectableBoolV(string(m), m == s.Sky.Model, 0, imgui.NewVec2(0, 0)) {
				s.Sky.Model = m
				changed = true
			}
		}
		imgui.EndCombo()
	}
	if s.Sky.Model == renderer.SkyPreetham {
		changed = imgui.SliderFloatV("Turbidity", &s.Sky.Turbidity, 1.7, 10, "%.2f", imgui.SliderFlagsNone) || changed
	}
	changed = imgui.SliderFloatV("Sun Size", &s.Sky.SunSize, 0.1, 20, "%.1f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Sun Intensity", &s.Sky.SunIntensity, 0, 10, "%.2f", imgui.SliderFlagsNone) || changed
	changed = imgui.SliderFloatV("Sky Intensity", &s.Sky.SkyIntensity, 0, 4, "%.2f", imgui.SliderFlagsNone) || changed

	if changed {
		p.Renderer.SetSettings(s)
	}
	if p.SaveSettings != nil && imgui.Button("Save as Default") {
		p.report(p.SaveSettings(p.Renderer.Settings()), "renderer settings saved")
	}
	imgui.TreePop()
}

func (p *Panels) drawStats() {
	st := p.Renderer.Stats()
	imgui.Text(fmt.Sprintf("Frame: %.2f ms", float64(st.FrameTime.Microseconds())/1000))
	imgui.Text(fmt.Sprintf("Draw calls: %d (%d instances)", st.DrawCalls, st.Instances))
	imgui.Text(fmt.Sprintf("Batches: %d static, %d dynamic", st.StaticBatches, st.DynamicDraws))
	imgui.Text(fmt.Sprintf("Triangles: %d drawn / %d submitted", st.TrianglesDrawn, st.TrianglesSubmitted))
	imgui.Text(fmt.Sprintf("Shadow casters: %d", st.ShadowCasters))
	imgui.Text(fmt.Sprintf("Lights: %d dir, %d point, %d spot", st.DirectionalLights, st.PointLights, st.SpotLights))
	for _, pt := range st.PassTimes {
		imgui.TextDisabled(fmt.Sprintf("  %s: %.3f ms", pt.Pass, float64(pt.Duration.Microseconds())/1000))
	}
}

func (p *Panels) drawStatusBar() {
	e := p.Editor
	path := e.Path
	if path == "" {
		path = "unsaved"
	}
	imgui.Text(fmt.Sprintf("%s  |  %d entities", path, e.Scene.Len()))
	if e.Loader != nil {
		if n := e.Loader.Pending(); n > 0 {
			imgui.SameLine()
			imgui.TextDisabled(fmt.Sprintf("|  loading %d textures", n))
		}
	}
	if p.status != "" && time.Since(p.statusAt) < 4*time.Second {
		imgui.SameLine()
		imgui.TextDisabled("|  " + p.status)
	}
}
