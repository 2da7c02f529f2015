//go:build js && wasm

package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"syscall/js"

	"github.com/drawroom/drawroom/internal/board"
	"github.com/drawroom/drawroom/internal/history"
	"github.com/drawroom/drawroom/internal/render"
)

// queueSize bounds the input events waiting for the board. JS callbacks
// must never block, so a full queue drops the event.
const queueSize = 1024

var (
	logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	queue  = make(chan func(), queueSize)

	// Owned by the queue goroutine.
	handle  *board.Handle
	inbound *jsChannel

	frameMu sync.Mutex
	frame   = "[]"
)

func main() {
	go drain()

	api := js.Global().Get("Object").New()

	// --- Lifecycle ---
	api.Set("create", js.FuncOf(create))
	api.Set("destroy", js.FuncOf(destroy))
	api.Set("receive", js.FuncOf(receive))

	// --- Input (frontend → board) ---
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("pointerDown", js.FuncOf(pointer((*board.Handle).PointerDown)))
	api.Set("pointerMove", js.FuncOf(pointer((*board.Handle).PointerMove)))
	api.Set("pointerUp", js.FuncOf(pointer((*board.Handle).PointerUp)))
	api.Set("typeText", js.FuncOf(typeText))
	api.Set("keyDown", js.FuncOf(keyDown))
	api.Set("blur", js.FuncOf(blur))
	api.Set("commitText", js.FuncOf(commitText))

	// --- Queries (frontend ← board) ---
	api.Set("render", js.FuncOf(renderFrame))

	js.Global().Set("drawroom", api)
	js.Global().Set("drawroomWasmReady", js.ValueOf(true))

	select {}
}

// drain runs queued calls in order. Handle methods block until the board
// loop has handled them, which may wait on a history fetch that needs the
// JS event loop, so they never run on a JS callback.
func drain() {
	for fn := range queue {
		fn()
	}
}

func enqueue(fn func()) {
	select {
	case queue <- fn:
	default:
		logger.Warn("input queue full, dropping event")
	}
}

// withHandle queues fn to run against the current board, if any.
func withHandle(fn func(h *board.Handle)) {
	enqueue(func() {
		if handle == nil {
			return
		}
		fn(handle)
	})
}

// jsChannel carries frames between the board and a JS transport. Outbound
// frames go to a JS function; inbound frames arrive through receive.
type jsChannel struct {
	send js.Value
	recv chan []byte
}

func (c *jsChannel) Send(_ context.Context, data []byte) error {
	c.send.Invoke(string(data))
	return nil
}

func (c *jsChannel) Receive() <-chan []byte {
	return c.recv
}

// create(roomId, serverUrl, token, send, onTextEdit) opens a board,
// replacing any previous one. send(frame) and onTextEdit(x, y) are JS
// functions; onTextEdit may be omitted.
func create(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 || args[3].Type() != js.TypeFunction {
		return js.ValueOf(map[string]interface{}{"error": "usage: create(roomId, serverUrl, token, send, onTextEdit)"})
	}
	roomID := args[0].String()
	serverURL := args[1].String()
	token := args[2].String()
	channel := &jsChannel{send: args[3], recv: make(chan []byte, queueSize)}

	var onTextEdit js.Value
	if len(args) > 4 && args[4].Type() == js.TypeFunction {
		onTextEdit = args[4]
	}

	enqueue(func() {
		if handle != nil {
			handle.Destroy()
		}

		recorder := render.NewRecorder()
		opts := []board.Option{
			board.WithLogger(logger),
			board.WithHistory(history.NewClient(serverURL, token, nil, logger)),
			board.WithOnRedraw(func() {
				data, err := recorder.JSON()
				if err != nil {
					logger.Error("encode frame", "error", err)
					return
				}
				frameMu.Lock()
				frame = data
				frameMu.Unlock()
			}),
		}
		if !onTextEdit.IsUndefined() {
			opts = append(opts, board.WithOnTextEdit(func(x, y float64) {
				onTextEdit.Invoke(x, y)
			}))
		}

		handle = board.Create(context.Background(), recorder, roomID, channel, opts...)
		inbound = channel
	})
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func destroy(this js.Value, args []js.Value) interface{} {
	enqueue(func() {
		if handle == nil {
			return
		}
		handle.Destroy()
		handle, inbound = nil, nil
	})
	return nil
}

// receive hands a frame from the JS transport to the board.
func receive(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	data := []byte(args[0].String())
	enqueue(func() {
		if inbound == nil {
			return
		}
		select {
		case inbound.recv <- data:
		default:
			logger.Warn("inbound buffer full, dropping frame")
		}
	})
	return nil
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	tool, err := board.ParseTool(args[0].String())
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	withHandle(func(h *board.Handle) { h.SetTool(tool) })
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func pointer(method func(h *board.Handle, x, y float64)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return nil
		}
		x, y := args[0].Float(), args[1].Float()
		withHandle(func(h *board.Handle) { method(h, x, y) })
		return nil
	}
}

func typeText(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	s := args[0].String()
	withHandle(func(h *board.Handle) { h.TypeText(s) })
	return nil
}

func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	key := args[0].String()
	withHandle(func(h *board.Handle) { h.KeyDown(key) })
	return nil
}

func blur(this js.Value, args []js.Value) interface{} {
	withHandle((*board.Handle).Blur)
	return nil
}

func commitText(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	x, y, text := args[0].Float(), args[1].Float(), args[2].String()
	withHandle(func(h *board.Handle) { h.CommitText(x, y, text) })
	return nil
}

// renderFrame returns the latest frame as Canvas2D draw commands.
func renderFrame(this js.Value, args []js.Value) interface{} {
	frameMu.Lock()
	defer frameMu.Unlock()
	return js.ValueOf(frame)
}
