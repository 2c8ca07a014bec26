package anim

import (
	"errors"

	"github.com/milk9111/animgraph/common"
)

var (
	ErrWeightCount     = errors.New("anim: weights and positions differ in length")
	ErrTooFewPositions = errors.New("anim: blend tree needs at least two positions")
	ErrPositionOrder   = errors.New("anim: blend tree positions must be strictly increasing")
	ErrNilWeight       = errors.New("anim: blend tree weight is nil")
)

// Weight is a blend weight in [0,1] shared between whatever drives it and the
// mixer that reads it.
type Weight struct {
	Value float64
}

// NewWeight returns a weight clamped to [0,1].
func NewWeight(v float64) *Weight {
	return &Weight{Value: common.Clamp01(v)}
}

// AnimateTowardsValue moves the weight toward target by at most maxDelta.
// Call once per fixed tick.
func (w *Weight) AnimateTowardsValue(target, maxDelta float64) {
	if w == nil {
		return
	}
	if maxDelta < 0 {
		maxDelta = -maxDelta
	}
	w.Value = common.Clamp01(common.MoveTowards(w.Value, common.Clamp01(target), maxDelta))
}

// WeightManager1D distributes a single blend parameter across weights placed
// at increasing positions. Only the two weights bracketing the parameter are
// ever non-zero and they always sum to 1.
type WeightManager1D struct {
	weights   []*Weight
	positions []float64
	position  float64
}

func NewWeightManager1D(weights []*Weight, positions []float64) (*WeightManager1D, error) {
	if len(weights) != len(positions) {
		return nil, ErrWeightCount
	}
	if len(positions) < 2 {
		return nil, ErrTooFewPositions
	}
	for i, w := range weights {
		if w == nil {
			return nil, ErrNilWeight
		}
		if i > 0 && positions[i] <= positions[i-1] {
			return nil, ErrPositionOrder
		}
	}
	m := &WeightManager1D{
		weights:   append([]*Weight(nil), weights...),
		positions: append([]float64(nil), positions...),
	}
	m.SetPosition(positions[0])
	return m, nil
}

// Weights returns the managed weights in position order.
func (m *WeightManager1D) Weights() []*Weight {
	if m == nil {
		return nil
	}
	return append([]*Weight(nil), m.weights...)
}

// Positions returns a copy of the blend positions.
func (m *WeightManager1D) Positions() []float64 {
	if m == nil {
		return nil
	}
	return append([]float64(nil), m.positions...)
}

// Position returns the last clamped parameter passed to SetPosition.
func (m *WeightManager1D) Position() float64 {
	if m == nil {
		return 0
	}
	return m.position
}

// SetPosition clamps pos to the position range and rewrites every weight.
func (m *WeightManager1D) SetPosition(pos float64) {
	if m == nil || len(m.positions) < 2 {
		return
	}
	last := len(m.positions) - 1
	pos = common.Clamp(pos, m.positions[0], m.positions[last])
	m.position = pos

	found := false
	for i := 1; i <= last; i++ {
		if found {
			m.weights[i].Value = 0
			continue
		}
		lo, hi := m.positions[i-1], m.positions[i]
		if pos > hi {
			m.weights[i-1].Value = 0
			continue
		}
		t := (pos - lo) / (hi - lo)
		m.weights[i].Value = t
		m.weights[i-1].Value = 1 - t
		found = true
	}
}
