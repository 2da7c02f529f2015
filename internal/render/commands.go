package render

import (
	"encoding/json"
	"slices"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and replays them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "clear", "stroke", "fill", "text"
	Path        []PathCommand `json:"path,omitempty"`        // for "stroke" and "fill"
	Color       string        `json:"color,omitempty"`       // stroke, fill or background color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // for "stroke"
	Text        string        `json:"text,omitempty"`        // for "text"
	X           float64       `json:"x,omitempty"`
	Y           float64       `json:"y,omitempty"`
	FontSize    float64       `json:"fontSize,omitempty"`
}

// Recorder is a Surface that keeps the commands of the latest frame.
// Clear starts a new frame, so a full redraw leaves exactly one frame.
type Recorder struct {
	commands []DrawCommand
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Clear(background string) {
	r.commands = append(r.commands[:0], DrawCommand{Op: "clear", Color: background})
}

func (r *Recorder) StrokePath(path []PathCommand, style Style) {
	if len(path) == 0 {
		return
	}
	r.commands = append(r.commands, DrawCommand{
		Op:          "stroke",
		Path:        slices.Clone(path),
		Color:       style.Color,
		StrokeWidth: style.LineWidth,
	})
}

func (r *Recorder) FillPath(path []PathCommand, style Style) {
	if len(path) == 0 {
		return
	}
	r.commands = append(r.commands, DrawCommand{
		Op:    "fill",
		Path:  slices.Clone(path),
		Color: style.Color,
	})
}

func (r *Recorder) FillText(text string, x, y float64, style Style) {
	r.commands = append(r.commands, DrawCommand{
		Op:       "text",
		Text:     text,
		X:        x,
		Y:        y,
		Color:    style.Color,
		FontSize: style.FontSize,
	})
}

// Commands returns a copy of the current frame.
func (r *Recorder) Commands() []DrawCommand {
	return slices.Clone(r.commands)
}

// JSON serializes the current frame for the browser.
func (r *Recorder) JSON() (string, error) {
	return DrawCommandsToJSON(r.commands)
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
