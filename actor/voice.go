package actor

// DefaultLineLength is how long a voice line plays when its group has no
// authored length.
const DefaultLineLength = 1.0

// Voice is a single speaking channel.
type Voice struct {
	Lines   map[string]float64
	current string
	left    float64
	played  []string
}

func NewVoice() *Voice {
	return &Voice{Lines: map[string]float64{}}
}

// Play starts group, replacing whatever is speaking.
func (v *Voice) Play(group string) {
	length, ok := v.Lines[group]
	if !ok || length <= 0 {
		length = DefaultLineLength
	}
	v.current = group
	v.left = length
	v.played = append(v.played, group)
}

func (v *Voice) Speaking() bool { return v.left > 0 }

func (v *Voice) Current() string {
	if !v.Speaking() {
		return ""
	}
	return v.current
}

// Tick counts the current line down.
func (v *Voice) Tick(dt float64) {
	if v.left <= 0 {
		return
	}
	v.left -= dt
	if v.left <= 0 {
		v.left = 0
		v.current = ""
	}
}

// Drain returns the groups started since the last call.
func (v *Voice) Drain() []string {
	out := v.played
	v.played = nil
	return out
}
