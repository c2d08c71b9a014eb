//go:build js && wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"

	"github.com/codepanda/gestureimage/internal/area"
	"github.com/codepanda/gestureimage/internal/engine"
	"github.com/codepanda/gestureimage/internal/mapfile"
)

var (
	surface *engine.Surface
	ids     *mapfile.IDRegistry

	onMatrix    js.Value
	onTap       js.Value
	onRegionHit js.Value
)

func main() {
	surface = engine.NewSurface(engine.DefaultOptions())
	ids = mapfile.NewIDRegistry()

	surface.OnMatrixChange(func(m engine.Matrix2D, st engine.State) {
		if onMatrix.Type() == js.TypeFunction {
			onMatrix.Invoke(matrixJSON(m, st))
		}
	})
	surface.OnTap(func(x, y float64) {
		if onTap.Type() == js.TypeFunction {
			onTap.Invoke(x, y)
		}
	})
	surface.OnRegionHit(func(r area.Region) {
		if onRegionHit.Type() == js.TypeFunction {
			onRegionHit.Invoke(regionJSON(r))
		}
	})

	// Create the engine API object
	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("initialize", js.FuncOf(initialize))
	api.Set("pointer", js.FuncOf(pointer))
	api.Set("loadMap", js.FuncOf(loadMap))
	api.Set("loadSampleMap", js.FuncOf(loadSampleMap))
	api.Set("reset", js.FuncOf(reset))

	// --- Listeners (engine → frontend) ---
	api.Set("onMatrix", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		onMatrix = firstArg(args)
		return nil
	}))
	api.Set("onTap", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		onTap = firstArg(args)
		return nil
	}))
	api.Set("onRegionHit", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		onRegionHit = firstArg(args)
		return nil
	}))

	// --- Queries ---
	api.Set("getState", js.FuncOf(getState))
	api.Set("getMatrix", js.FuncOf(getMatrix))
	api.Set("screenToImage", js.FuncOf(screenToImage))

	js.Global().Set("gestureImage", api)
	js.Global().Set("gestureImageWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func firstArg(args []js.Value) js.Value {
	if len(args) < 1 {
		return js.Undefined()
	}
	return args[0]
}

func errorResult(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okResult() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

// initialize(viewportW, viewportH, contentW, contentH)
func initialize(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return errorResult("initialize needs viewport and content sizes")
	}
	v := engine.Viewport{Width: args[0].Float(), Height: args[1].Float()}
	c := engine.Content{Width: args[2].Float(), Height: args[3].Float()}
	return js.ValueOf(surface.Initialize(v, c))
}

// pointer(sampleJSON) takes an engine.Sample encoded as JSON.
func pointer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing sample JSON")
	}
	var sample engine.Sample
	if err := json.Unmarshal([]byte(args[0].String()), &sample); err != nil {
		return errorResult(err.Error())
	}
	surface.Handle(sample)
	return nil
}

// loadMap(text, format, name) decodes a map file held by the page.
func loadMap(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorResult("loadMap needs text, format and name")
	}
	format := mapfile.Format(args[1].String())
	m, err := mapfile.Decode(strings.NewReader(args[0].String()), format, args[2].String(), ids)
	if err != nil {
		return errorResult(err.Error())
	}
	return reportJSON(surface.LoadRegions(m.Areas))
}

func loadSampleMap(this js.Value, args []js.Value) interface{} {
	m, err := mapfile.Sample(ids)
	if err != nil {
		return errorResult(err.Error())
	}
	return reportJSON(surface.LoadRegions(m.Areas))
}

func reset(this js.Value, args []js.Value) interface{} {
	surface.Reset()
	return nil
}

// --- Query Handlers ---

func getState(this js.Value, args []js.Value) interface{} {
	data, _ := json.Marshal(surface.State())
	return js.ValueOf(string(data))
}

func getMatrix(this js.Value, args []js.Value) interface{} {
	return matrixJSON(surface.Matrix(), surface.State())
}

func screenToImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || !surface.Configured() {
		return nil
	}
	x, y := surface.ScreenToImage(args[0].Float(), args[1].Float())
	return js.ValueOf([]interface{}{x, y})
}

// --- Encoding ---

func matrixJSON(m engine.Matrix2D, st engine.State) js.Value {
	data, _ := json.Marshal(map[string]interface{}{
		"affine": [6]float64(m),
		"values": m.Values(),
		"state":  st,
	})
	return js.ValueOf(string(data))
}

func regionJSON(r area.Region) js.Value {
	symbol, _ := ids.Name(r.ID)
	data, _ := json.Marshal(map[string]interface{}{
		"id":     r.ID,
		"symbol": symbol,
		"name":   r.Name,
		"kind":   r.Shape.Kind(),
		"attrs":  r.Attrs(),
	})
	return js.ValueOf(string(data))
}

func reportJSON(report area.LoadReport) js.Value {
	data, _ := json.Marshal(report)
	return js.ValueOf(string(data))
}
