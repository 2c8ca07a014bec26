package component

// ScriptEmits keeps the most recent value each script emit name carried.
type ScriptEmits struct {
	Values map[string]any
	Count  int
}

var ScriptEmitsComponent = NewComponent[ScriptEmits]()
