package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/milk9111/animgraph/actor"
	"github.com/milk9111/animgraph/anim"
	"github.com/milk9111/animgraph/animset"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/ecs/system"
	"github.com/milk9111/animgraph/script"
)

type options struct {
	set   string
	clip  string
	then  string
	at    int
	ticks int
	dt    float64
	every int
	blend float64
	rate  float64
	hold  string
	dir   string
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("animsim", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&o.set, "set", "kid", "body set to load")
	fs.StringVar(&o.clip, "clip", "idle", "state to play first")
	fs.StringVar(&o.then, "then", "", "state to cross-fade to at tick -at")
	fs.IntVar(&o.at, "at", 60, "tick at which -then is played")
	fs.IntVar(&o.ticks, "ticks", 120, "number of ticks to simulate")
	fs.Float64Var(&o.dt, "dt", 1.0/60, "seconds per tick")
	fs.IntVar(&o.every, "every", 10, "print every n ticks (events always print)")
	fs.Float64Var(&o.blend, "blend", -1, "locomotion blend target (negative leaves it alone)")
	fs.Float64Var(&o.rate, "rate", 2, "blend parameter rate per second")
	fs.StringVar(&o.hold, "hold", "", "item to put in the right hand (its script is loaded by name)")
	fs.StringVar(&o.dir, "dir", animset.Dir, "directory whose files override the embedded sets")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.ticks < 0 || o.dt <= 0 {
		return o, errors.New("animsim: -ticks must be >= 0 and -dt > 0")
	}
	if o.every <= 0 {
		o.every = 1
	}
	return o, nil
}

func run(args []string, out, errOut io.Writer) error {
	o, err := parseFlags(args, errOut)
	if err != nil {
		return err
	}
	animset.Dir = o.dir
	logger := log.New(errOut, "", 0)

	reg, err := animset.LoadDefaults()
	if err != nil {
		return err
	}
	spec, ok := reg.Spec(o.set)
	if !ok {
		return fmt.Errorf("animsim: unknown body set %q (have %s)", o.set, strings.Join(reg.BodySets(), ", "))
	}

	var rt *script.Runtime
	if spec.Script != "" {
		rt, err = loadRuntime(spec.Script)
		if err != nil {
			return err
		}
	}
	char := actor.NewCharacter(o.set, actor.NewKidRig(), rt)
	char.Logger = logger

	items := map[string]*actor.Item{}
	item := func(name string) (*actor.Item, error) {
		if it, ok := items[name]; ok {
			return it, nil
		}
		irt, err := loadRuntime(name)
		if err != nil {
			return nil, err
		}
		it := actor.NewItem(name, irt)
		items[name] = it
		return it, nil
	}
	if o.hold != "" {
		it, err := item(o.hold)
		if err != nil {
			return err
		}
		if hand, ok := char.Grabber("r_hand"); ok {
			hand.Grab(it)
		}
	}

	w := ecs.NewWorld()
	e, a, err := system.SpawnAnimated(w, system.AnimatedSpec{
		Character: char,
		Registry:  reg,
		BodySet:   o.set,
		Resolve: func(name string) anim.Source {
			it, err := item(name)
			if err != nil {
				logger.Printf("animsim: event source %s: %v", name, err)
				return nil
			}
			return it
		},
	})
	if err != nil {
		return err
	}
	if err := a.Player.Play(char, o.set, o.clip); err != nil {
		return err
	}
	if o.blend >= 0 {
		bp := &component.BlendParam{Mixer: "locomotion", Target: o.blend, Rate: o.rate}
		if err := ecs.Add(w, e, component.BlendParamComponent.Kind(), bp); err != nil {
			return err
		}
	}

	var fired []anim.Event
	a.Player.OnAnimate = func(p *anim.Player) {
		fired = append(fired, p.Context().Fired()...)
	}
	a.Player.OnAnimationChange = func(layer int) {
		fmt.Fprintf(out, "       change layer=%d current=%s\n", layer, nodeName(a.Player.Current()))
	}

	sched := ecs.NewScheduler(
		system.NewBlendSystem(o.dt),
		system.NewAnimationSystem(o.dt),
		system.NewFootstepSystem(),
		system.NewScriptEmitSystem(),
	)

	hips, _ := char.Rig.Bone("hips")
	for tick := 1; tick <= o.ticks; tick++ {
		if o.then != "" && tick == o.at {
			if err := a.Player.Play(char, o.set, o.then); err != nil {
				return err
			}
		}
		fired = fired[:0]
		sched.Update(w)

		for _, ev := range fired {
			fmt.Fprintf(out, "%5d  event %s\n", tick, ev)
		}
		if tick%o.every != 0 && tick != o.ticks {
			continue
		}
		pb := a.Player.Context().Main
		fmt.Fprintf(out, "%5d  t=%.3f current=%s active=%s fade=%.2f norm=%.3f loops=%d hips.y=%.3f smile=%.2f voice=%s\n",
			tick,
			float64(tick)*o.dt,
			nodeName(a.Player.Current()),
			nodeName(a.Player.Active()),
			a.Player.TransitionNormTime(),
			pb.NormalizedTime,
			pb.LoopsB,
			hips.Local().Y,
			char.Rig.BlendShapeWeight("smile"),
			char.Voice.Current(),
		)
	}

	if steps, ok := ecs.Get(w, e, component.FootstepsComponent.Kind()); ok {
		fmt.Fprintf(out, "footsteps left=%d right=%d\n", steps.Left, steps.Right)
	}
	if emits, ok := ecs.Get(w, e, component.ScriptEmitsComponent.Kind()); ok {
		fmt.Fprintf(out, "script emits=%d\n", emits.Count)
	}
	for _, se := range char.ScriptErrors() {
		fmt.Fprintf(out, "script error %v\n", se)
	}
	return nil
}

func loadRuntime(name string) (*script.Runtime, error) {
	src, err := animset.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("animsim: script %s: %w", name, err)
	}
	return script.Compile(name, src)
}

func nodeName(n anim.Node) string {
	if n == nil {
		return "-"
	}
	if t, ok := n.(*anim.Transition); ok {
		return fmt.Sprintf("%s->%s", nodeName(t.From()), nodeName(t.To()))
	}
	return n.Name()
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
}
