package render

import (
	"bytes"
	"encoding/json"
	"image"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/drawroom/drawroom/internal/geometry"
	"github.com/drawroom/drawroom/internal/shape"
)

func sampleScene() []shape.Shape {
	return []shape.Shape{
		shape.Rect{ID: "r", X: 10, Y: 10, Width: 40, Height: 50},
		shape.Circle{ID: "c", CenterX: 100, CenterY: 100, Radius: -20},
		shape.Pencil{ID: "p", Points: []geometry.Point{{X: 5, Y: 5}, {X: 6, Y: 8}, {X: 9, Y: 12}}},
		shape.Diamond{ID: "d", X: 150, Y: 20, Width: 40, Height: 30},
		shape.Text{ID: "t", X: 30, Y: 150, Text: "hello"},
		shape.Arrow{ID: "a", X1: 20, Y1: 180, X2: 120, Y2: 180},
	}
}

func TestRedrawStartsWithOpaqueClear(t *testing.T) {
	rec := NewRecorder()
	Redraw(rec, nil)

	cmds := rec.Commands()
	if len(cmds) != 1 || cmds[0].Op != "clear" || cmds[0].Color != Background {
		t.Fatalf("commands = %+v", cmds)
	}
}

func TestRedrawIsIdempotent(t *testing.T) {
	rec := NewRecorder()
	Redraw(rec, sampleScene())
	first := rec.Commands()
	Redraw(rec, sampleScene())

	if !reflect.DeepEqual(first, rec.Commands()) {
		t.Error("second redraw produced different commands")
	}
}

func TestPaintRules(t *testing.T) {
	rec := NewRecorder()
	Redraw(rec, sampleScene())
	cmds := rec.Commands()[1:]

	// rect, circle, pencil, diamond, text, arrow shaft, arrow head
	wantOps := []string{"stroke", "stroke", "stroke", "stroke", "text", "stroke", "fill"}
	gotOps := make([]string, len(cmds))
	for i, c := range cmds {
		gotOps[i] = c.Op
	}
	if !reflect.DeepEqual(gotOps, wantOps) {
		t.Fatalf("ops = %v, want %v", gotOps, wantOps)
	}

	rect := cmds[0].Path
	if rect[0].Op != "M" || rect[2].Args[0] != 50 || rect[2].Args[1] != 60 || rect[len(rect)-1].Op != "Z" {
		t.Errorf("rect path = %v", rect)
	}

	circle := cmds[1].Path
	if circle[0].Args[0] != 120 || circle[0].Args[1] != 100 {
		t.Errorf("circle should start at center + |radius|, got %v", circle[0].Args)
	}

	if n := len(cmds[2].Path); n != 3 {
		t.Errorf("pencil path has %d commands, want 3", n)
	}

	diamond := cmds[3].Path
	if diamond[0].Args[0] != 170 || diamond[0].Args[1] != 20 {
		t.Errorf("diamond top vertex = %v, want (170, 20)", diamond[0].Args)
	}

	text := cmds[4]
	if text.X != 30 || text.Y != 170 || text.FontSize != FontSize || text.Text != "hello" {
		t.Errorf("text command = %+v", text)
	}

	head := cmds[6].Path
	if head[0].Args[0] != 120 || head[0].Args[1] != 180 {
		t.Errorf("arrow head apex = %v, want (120, 180)", head[0].Args)
	}
	wantX := 120 - ArrowHeadLength*math.Cos(-math.Pi/7)
	if math.Abs(head[1].Args[0]-wantX) > 1e-9 {
		t.Errorf("arrow head barb x = %v, want %v", head[1].Args[0], wantX)
	}
}

func TestPencilWithOnePointDrawsNothing(t *testing.T) {
	rec := NewRecorder()
	Redraw(rec, []shape.Shape{shape.Pencil{ID: "p", Points: []geometry.Point{{X: 1, Y: 1}}}})
	if n := len(rec.Commands()); n != 1 {
		t.Errorf("got %d commands, want only the clear", n)
	}
}

func TestPreviewDoesNotLeaveDraftBehind(t *testing.T) {
	rec := NewRecorder()
	scene := sampleScene()[:1]
	Preview(rec, scene, shape.Rect{ID: "draft", X: 0, Y: 0, Width: 5, Height: 5})
	if n := len(rec.Commands()); n != 3 {
		t.Fatalf("preview commands = %d, want 3", n)
	}
	Redraw(rec, scene)
	if n := len(rec.Commands()); n != 2 {
		t.Errorf("redraw after preview = %d commands, want 2", n)
	}
}

func TestDrawCommandJSON(t *testing.T) {
	rec := NewRecorder()
	Redraw(rec, []shape.Shape{shape.Rect{ID: "r", X: 1, Y: 2, Width: 3, Height: 4}})
	out, err := rec.JSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `["M",1,2]`) || !strings.Contains(out, `["Z"]`) {
		t.Errorf("json = %s", out)
	}

	var back []DrawCommand
	if err := json.Unmarshal([]byte(out), &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, rec.Commands()) {
		t.Errorf("decoded commands differ:\n%+v\n%+v", back, rec.Commands())
	}
}

func TestPathCommandUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want PathCommand
	}{
		{`["M",1.5,-2]`, MoveTo(1.5, -2)},
		{`["C",1,2,3,4,5,6]`, CubicTo(1, 2, 3, 4, 5, 6)},
		{`["Z"]`, ClosePath()},
		{`[]`, PathCommand{}},
	}
	for _, tt := range tests {
		var got PathCommand
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %+v, want %+v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{`{"op":"M"}`, `[1,2,3]`, `["L","x",2]`} {
		var c PathCommand
		if err := json.Unmarshal([]byte(bad), &c); err == nil {
			t.Errorf("%s: expected error", bad)
		}
	}
}

func TestTransformedScalesCoordinates(t *testing.T) {
	rec := NewRecorder()
	surf := Transformed(rec, geometry.Scale(2, 2))
	Redraw(surf, []shape.Shape{shape.Text{ID: "t", X: 10, Y: 10, Text: "x"}})

	text := rec.Commands()[1]
	if text.X != 20 || text.Y != 60 || text.FontSize != 2*FontSize {
		t.Errorf("transformed text = %+v", text)
	}
	if Transformed(rec, geometry.Identity()) != Surface(rec) {
		t.Error("identity transform should return the surface unchanged")
	}
}

func pixels(img image.Image) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8), byte(a>>8))
		}
	}
	return out
}

func TestRasterRedrawIsIdempotent(t *testing.T) {
	r, err := NewRaster(240, 200)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	Redraw(r, sampleScene())
	first := pixels(r.Image())
	Redraw(r, sampleScene())
	second := pixels(r.Image())

	if !bytes.Equal(first, second) {
		t.Error("raster output differs between identical redraws")
	}
	if err := r.Err(); err != nil {
		t.Fatalf("raster error: %v", err)
	}
}

func TestRasterBackgroundIsOpaqueBlack(t *testing.T) {
	r, err := NewRaster(20, 20)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	Redraw(r, nil)
	cr, cg, cb, ca := r.Image().At(10, 10).RGBA()
	if cr != 0 || cg != 0 || cb != 0 || ca != 0xffff {
		t.Errorf("background = %v %v %v %v", cr, cg, cb, ca)
	}

	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestNewRasterRejectsEmptySize(t *testing.T) {
	if _, err := NewRaster(0, 10); err == nil {
		t.Error("expected error")
	}
}

func TestPDFOutput(t *testing.T) {
	p := NewPDF(240, 200)
	Redraw(p, sampleScene())

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}
