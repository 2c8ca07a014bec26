package animset

import (
	"sort"

	"github.com/tanema/gween/ease"

	"github.com/milk9111/animgraph/anim"
)

const defaultEaseSamples = 16

var easings = map[string]ease.TweenFunc{
	"linear":         ease.Linear,
	"in_quad":        ease.InQuad,
	"out_quad":       ease.OutQuad,
	"in_out_quad":    ease.InOutQuad,
	"in_cubic":       ease.InCubic,
	"out_cubic":      ease.OutCubic,
	"in_out_cubic":   ease.InOutCubic,
	"in_sine":        ease.InSine,
	"out_sine":       ease.OutSine,
	"in_out_sine":    ease.InOutSine,
	"out_bounce":     ease.OutBounce,
	"out_back":       ease.OutBack,
	"out_elastic":    ease.OutElastic,
	"in_out_elastic": ease.InOutElastic,
}

// EaseSpec samples a named easing function into curve keys over [0, 1].
type EaseSpec struct {
	Func    string  `yaml:"func"`
	From    float64 `yaml:"from"`
	To      float64 `yaml:"to"`
	Samples int     `yaml:"samples"`
}

// EaseNames returns the supported easing names, sorted.
func EaseNames() []string {
	out := make([]string, 0, len(easings))
	for name := range easings {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (e EaseSpec) valid() bool {
	_, ok := easings[e.Func]
	return ok && e.Samples >= 0
}

func (e EaseSpec) build() *anim.Curve {
	fn, ok := easings[e.Func]
	if !ok {
		fn = ease.Linear
	}
	n := e.Samples
	if n < 2 {
		n = defaultEaseSamples
	}
	keys := make([]anim.Key, 0, n+1)
	change := float32(e.To - e.From)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		v := fn(float32(t), float32(e.From), change, 1)
		keys = append(keys, anim.Key{Position: t, Value: float64(v)})
	}
	// exact endpoints; float32 sampling drifts
	keys[0].Value = e.From
	keys[n].Value = e.To
	return anim.NewCurve(keys...)
}
