package board

import "fmt"

type Tool string

const (
	ToolPencil  Tool = "pencil"
	ToolRect    Tool = "rect"
	ToolCircle  Tool = "circle"
	ToolDiamond Tool = "diamond"
	ToolText    Tool = "text"
	ToolArrow   Tool = "arrow"
	ToolEraser  Tool = "eraser"

	DefaultTool = ToolCircle
)

var tools = map[Tool]struct{}{
	ToolPencil: {}, ToolRect: {}, ToolCircle: {}, ToolDiamond: {},
	ToolText: {}, ToolArrow: {}, ToolEraser: {},
}

// ParseTool accepts the tool names used by the toolbar.
func ParseTool(name string) (Tool, error) {
	t := Tool(name)
	if _, ok := tools[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t, nil
}

type State int

const (
	StateIdle State = iota
	StateDragging
	StateTextEditing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateTextEditing:
		return "text-editing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
