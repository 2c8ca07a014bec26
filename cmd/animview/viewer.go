package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/colornames"

	"github.com/milk9111/animgraph/actor"
	"github.com/milk9111/animgraph/anim"
	"github.com/milk9111/animgraph/animset"
	"github.com/milk9111/animgraph/common"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/ecs/system"
	"github.com/milk9111/animgraph/script"
)

const (
	screenWidth  = 960
	screenHeight = 540
	tickDT       = 1.0 / 60
	blendStep    = 0.25
)

var digitKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
	ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

type viewer struct {
	bodySet string
	reg     *animset.Registry
	world   *ecs.World
	sched   *ecs.Scheduler
	ent     ecs.Entity
	anim    *component.Animator
	char    *actor.Character
	blend   *component.BlendParam
	keys    []string
	watcher *animset.Watcher

	ui     *ebitenui.UI
	status *statusPanel
}

func newViewer(bodySet, initial string) (*viewer, error) {
	reg, err := animset.LoadDefaults()
	if err != nil {
		return nil, err
	}
	spec, ok := reg.Spec(bodySet)
	if !ok {
		return nil, fmt.Errorf("animview: unknown body set %q", bodySet)
	}

	var rt *script.Runtime
	if spec.Script != "" {
		if rt, err = compileScript(spec.Script); err != nil {
			return nil, err
		}
	}

	v := &viewer{
		bodySet: bodySet,
		reg:     reg,
		world:   ecs.NewWorld(),
		char:    actor.NewCharacter(bodySet, actor.NewKidRig(), rt),
		blend:   &component.BlendParam{Mixer: "locomotion", Rate: 1.5},
	}
	v.sched = ecs.NewScheduler(
		system.NewBlendSystem(tickDT),
		system.NewAnimationSystem(tickDT),
		system.NewFootstepSystem(),
		system.NewScriptEmitSystem(),
	)
	if err := v.spawn(initial); err != nil {
		return nil, err
	}
	v.ui, v.status = newStatusUI(v)
	return v, nil
}

// spawn (re)creates the character entity with a fresh node graph.
func (v *viewer) spawn(initial string) error {
	if v.ent != 0 {
		ecs.DestroyEntity(v.world, v.ent)
	}
	v.char.Rig.ResetPose()
	e, a, err := system.SpawnAnimated(v.world, system.AnimatedSpec{
		Character: v.char,
		Registry:  v.reg,
		BodySet:   v.bodySet,
		Initial:   initial,
	})
	if err != nil {
		return err
	}
	v.ent, v.anim = e, a
	v.keys = a.Library.Keys(v.bodySet)
	if _, ok := a.Library.Mixer(v.bodySet, v.blend.Mixer); ok {
		return ecs.Add(v.world, e, component.BlendParamComponent.Kind(), v.blend)
	}
	return nil
}

func (v *viewer) watch(dir string) error {
	w, err := animset.NewWatcher(dir, filepath.Join(dir, "scripts"))
	if err != nil {
		return err
	}
	v.watcher = w
	return nil
}

func (v *viewer) close() {
	if v.watcher != nil {
		_ = v.watcher.Close()
	}
}

func (v *viewer) play(key string) {
	_ = v.anim.Player.Play(v.char, v.bodySet, key)
}

func (v *viewer) togglePause() {
	if v.anim.Player.Paused() {
		v.anim.Player.Resume()
		return
	}
	v.anim.Player.Pause()
}

func (v *viewer) nudgeBlend(delta float64) {
	m, ok := v.anim.Library.Mixer(v.bodySet, v.blend.Mixer)
	if !ok || m.Blend() == nil {
		return
	}
	ps := m.Blend().Positions()
	v.blend.Target = common.Clamp(v.blend.Target+delta, ps[0], ps[len(ps)-1])
}

func (v *viewer) reload() {
	if v.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-v.watcher.Events:
			if !ok {
				return
			}
			v.reloadFile(path)
		case err, ok := <-v.watcher.Errors:
			if ok {
				log.Printf("animview: watch: %v", err)
			}
		default:
			return
		}
	}
}

func (v *viewer) reloadFile(path string) {
	if animset.IsScriptFile(path) {
		name := filepath.Base(path)
		name = name[:len(name)-len(filepath.Ext(name))]
		rt, err := compileScript(name)
		if err != nil {
			log.Printf("animview: reload %s: %v", path, err)
			return
		}
		if v.char.Script != nil && v.char.Script.Name() == name {
			v.char.Script = rt
			log.Printf("animview: reloaded script %s", name)
		}
		return
	}
	bodySet, err := v.reg.Reload(path)
	if err != nil {
		log.Printf("animview: reload %s: %v", path, err)
		return
	}
	if bodySet != v.bodySet {
		return
	}
	current := v.blend.Mixer
	if cur := v.anim.Player.Current(); cur != nil {
		current = cur.Name()
	}
	if err := v.spawn(current); err != nil {
		log.Printf("animview: respawn after reload: %v", err)
		return
	}
	log.Printf("animview: reloaded %s", bodySet)
}

func (v *viewer) Update() error {
	v.reload()

	for i, k := range digitKeys {
		if i < len(v.keys) && inpututil.IsKeyJustPressed(k) {
			v.play(v.keys[i])
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		v.togglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		v.nudgeBlend(blendStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		v.nudgeBlend(-blendStep)
	}

	v.ui.Update()
	v.sched.Update(v.world)
	v.status.refresh(v)
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)
	drawGround(screen)
	drawSkeleton(screen, v.char.Rig, v.char.Speaking())
	v.ui.Draw(screen)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func compileScript(name string) (*script.Runtime, error) {
	src, err := animset.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("animview: script %s: %w", name, err)
	}
	return script.Compile(name, src)
}

func stateLabel(n anim.Node) string {
	if n == nil {
		return "-"
	}
	if t, ok := n.(*anim.Transition); ok {
		return fmt.Sprintf("%s -> %s (%.0f%%)", stateLabel(t.From()), stateLabel(t.To()), t.Ratio()*100)
	}
	return n.Name()
}
