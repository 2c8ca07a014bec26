package main

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/jakecoffman/cp"

	"github.com/milk9111/animgraph/actor"
	"github.com/milk9111/animgraph/anim"
)

const (
	pixelsPerUnit = 180
	jointSegments = 12
	jointRadius   = 4
)

var (
	origin      = cp.Vector{X: screenWidth / 2, Y: screenHeight - 80}
	boneColor   = cp.FColor{R: 0.95, G: 0.9, B: 0.8, A: 1}
	jointColor  = cp.FColor{R: 1, G: 0.55, B: 0.2, A: 1}
	groundColor = cp.FColor{R: 0.3, G: 0.35, B: 0.5, A: 1}
	voiceColor  = cp.FColor{R: 0.4, G: 0.9, B: 1, A: 1}
)

// project maps a model-space point to the screen, looking down -Z.
func project(p anim.Vec3) cp.Vector {
	return origin.Add(cp.Vector{X: p.X, Y: -p.Y}.Mult(pixelsPerUnit))
}

func drawGround(screen *ebiten.Image) {
	drawLine(screen, cp.Vector{X: 0, Y: origin.Y}, cp.Vector{X: screenWidth, Y: origin.Y}, groundColor)
}

func drawSkeleton(screen *ebiten.Image, rig *actor.Rig, speaking bool) {
	pose := rig.WorldPose()
	for _, j := range pose {
		if j.Parent < 0 {
			continue
		}
		drawLine(screen, project(pose[j.Parent].Pos), project(j.Pos), boneColor)
	}
	for _, j := range pose {
		drawCircle(screen, project(j.Pos), jointRadius, jointColor)
	}

	head, ok := rig.Bone("head")
	if !ok {
		return
	}
	var headPos anim.Vec3
	for _, j := range pose {
		if j.Name == head.Name {
			headPos = j.Pos
		}
	}
	center := project(headPos).Add(cp.Vector{Y: -24})
	drawCircle(screen, center, 22, boneColor)

	// Eyes close with the blink shape; the mouth curves with the smile shape.
	open := 1 - rig.BlendShapeWeight("blink")
	for _, side := range []float64{-1, 1} {
		eye := center.Add(cp.Vector{X: side * 8, Y: -5})
		drawLine(screen, eye.Add(cp.Vector{Y: -3 * open}), eye.Add(cp.Vector{Y: 3 * open}), boneColor)
	}
	smile := rig.BlendShapeWeight("smile")
	mouth := center.Add(cp.Vector{Y: 9})
	prev := mouth.Add(cp.Vector{X: -9})
	for i := 1; i <= 6; i++ {
		x := -9 + 18*float64(i)/6
		y := smile * 5 * (1 - (x*x)/81)
		p := mouth.Add(cp.Vector{X: x, Y: y})
		drawLine(screen, prev, p, boneColor)
		prev = p
	}

	if speaking {
		for r := 30.0; r <= 42; r += 6 {
			drawArc(screen, center, r, -math.Pi/4, math.Pi/4, voiceColor)
		}
	}
}

func drawLine(screen *ebiten.Image, a, b cp.Vector, c cp.FColor) {
	ebitenutil.DrawLine(screen, a.X, a.Y, b.X, b.Y, toNRGBA(c))
}

func drawCircle(screen *ebiten.Image, center cp.Vector, radius float64, c cp.FColor) {
	drawArc(screen, center, radius, 0, 2*math.Pi, c)
}

func drawArc(screen *ebiten.Image, center cp.Vector, radius, from, to float64, c cp.FColor) {
	if radius <= 0 {
		return
	}
	step := (to - from) / jointSegments
	prev := center.Add(cp.ForAngle(from).Mult(radius))
	for i := 1; i <= jointSegments; i++ {
		p := center.Add(cp.ForAngle(from + step*float64(i)).Mult(radius))
		drawLine(screen, prev, p, c)
		prev = p
	}
}

func toNRGBA(c cp.FColor) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
