package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
)

var textColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// statusPanel holds the labels refreshed every tick.
type statusPanel struct {
	state *widget.Text
	blend *widget.Text
	voice *widget.Text
	steps *widget.Text
	pause *widget.Button
}

func (s *statusPanel) refresh(v *viewer) {
	p := v.anim.Player
	pb := p.Context().Main
	s.state.Label = fmt.Sprintf("state: %s  t=%.2f loops=%d", stateLabel(p.Active()), pb.NormalizedTime, pb.LoopsB)
	s.blend.Label = fmt.Sprintf("locomotion: %.2f -> %.2f", v.blend.Position, v.blend.Target)
	voice := v.char.Voice.Current()
	if voice == "" {
		voice = "-"
	}
	s.voice.Label = fmt.Sprintf("voice: %s", voice)
	if steps, ok := ecs.Get(v.world, v.ent, component.FootstepsComponent.Kind()); ok {
		s.steps.Label = fmt.Sprintf("footsteps: L%d R%d", steps.Left, steps.Right)
	}
	label := "Pause"
	if p.Paused() {
		label = "Resume"
	}
	if text := s.pause.Text(); text != nil {
		text.Label = label
	}
}

// newStatusUI builds the side panel: state readouts, blend buttons and the
// key legend.
func newStatusUI(v *viewer) (*ebitenui.UI, *statusPanel) {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 160})
	btnImg := &widget.ButtonImage{
		Idle:    imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255}),
		Hover:   imageui.NewNineSliceColor(color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 255}),
		Pressed: imageui.NewNineSliceColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 255}),
	}

	goFace := ebtext.NewGoXFace(basicfont.Face7x13)
	var face ebtext.Face = goFace
	btnTextColor := &widget.ButtonTextColor{Idle: textColor}

	newText := func(s string) *widget.Text {
		return widget.NewText(widget.TextOpts.Text(s, &face, textColor))
	}
	newButton := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(btnImg),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				onClick()
			}),
		)
	}

	status := &statusPanel{
		state: newText("state: -"),
		blend: newText("locomotion: -"),
		voice: newText("voice: -"),
		steps: newText("footsteps: -"),
	}
	status.pause = newButton("Pause", v.togglePause)

	blendRow := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
			widget.RowLayoutOpts.Spacing(6),
		)),
	)
	blendRow.AddChild(newButton("slower", func() { v.nudgeBlend(-blendStep) }))
	blendRow.AddChild(newButton("faster", func() { v.nudgeBlend(blendStep) }))
	blendRow.AddChild(status.pause)

	legend := make([]string, 0, len(v.keys)+1)
	for i, k := range v.keys {
		if i >= len(digitKeys) {
			break
		}
		legend = append(legend, fmt.Sprintf("%d  %s", i+1, k))
	}
	legend = append(legend, "P  pause", "<- ->  blend")

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(6),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 12, Bottom: 12, Left: 12, Right: 12}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(260, 0),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionStart, VerticalPosition: widget.AnchorLayoutPositionStart}),
		),
	)
	panel.AddChild(status.state)
	panel.AddChild(status.blend)
	panel.AddChild(status.voice)
	panel.AddChild(status.steps)
	panel.AddChild(blendRow)
	panel.AddChild(newText(strings.Join(legend, "\n")))

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	return &ebitenui.UI{Container: root}, status
}
