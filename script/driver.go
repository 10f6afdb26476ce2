package script

import (
	"fmt"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/puppet/anim"
	"github.com/milk9111/puppet/assets"
)

// dispatchScript is appended to every driver so the host can call the
// script's update function with fresh globals each frame.
const dispatchScript = `
if __phase == "update" {
	update(__engine, __state)
}
`

// Driver runs a tengo script against one instance every frame. Scripts
// define update(engine, state); state is a map that survives between frames.
type Driver struct {
	path      string
	compiled  *tengo.Compiled
	stateData *tengo.Map
	elapsed   float64
}

// Load compiles the script at path from disk or the embedded assets.
func Load(path string) (*Driver, error) {
	src, err := assets.LoadScript(path)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", path, err)
	}
	return Compile(path, src)
}

// Compile builds a driver from source. path is only used for reporting.
func Compile(path string, src []byte) (*Driver, error) {
	full := string(src) + "\n" + dispatchScript
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__phase", "")
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__state", map[string]any{})

	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", path, err)
	}

	return &Driver{
		path:      path,
		compiled:  compiled,
		stateData: &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

func (d *Driver) Path() string {
	return d.path
}

// Elapsed is the preview time the driver has seen, in milliseconds.
func (d *Driver) Elapsed() float64 {
	return d.elapsed
}

// Value reads a key from the script's persistent state map.
func (d *Driver) Value(key string) any {
	if d == nil || d.stateData == nil {
		return nil
	}
	obj, ok := d.stateData.Value[key]
	if !ok {
		return nil
	}
	return tengo.ToInterface(obj)
}

// Reset clears the script state and elapsed time.
func (d *Driver) Reset() {
	d.elapsed = 0
	d.stateData = &tengo.Map{Value: map[string]tengo.Object{}}
}

// Update advances the driver clock by the instance frame time and runs the
// script's update function.
func (d *Driver) Update(inst *anim.Instance) error {
	if d == nil || d.compiled == nil {
		return fmt.Errorf("nil script driver")
	}
	if !inst.Valid() {
		return fmt.Errorf("script: %s: %w", d.path, anim.ErrNotConstructed)
	}
	d.elapsed += inst.FrameTime()

	if err := d.compiled.Set("__phase", "update"); err != nil {
		return err
	}
	if err := d.compiled.Set("__engine", buildEngine(inst, d)); err != nil {
		return err
	}
	if err := d.compiled.Set("__state", d.stateData); err != nil {
		return err
	}
	if err := d.compiled.Run(); err != nil {
		return fmt.Errorf("script: %s update: %w", d.path, err)
	}
	return nil
}

func buildEngine(inst *anim.Instance, d *Driver) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["set_state"] = &tengo.UserFunction{Name: "set_state", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		if err := inst.SetState(objectAsString(args[0]), objectAsString(args[1])); err != nil {
			log.Printf("script: %s: %v", d.path, err)
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["set_flip"] = &tengo.UserFunction{Name: "set_flip", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		if err := inst.SetFlip(objectAsString(args[0]), !args[1].IsFalsy()); err != nil {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["set_angle"] = &tengo.UserFunction{Name: "set_angle", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		angle, ok := tengo.ToFloat64(args[1])
		if !ok {
			return tengo.FalseValue, nil
		}
		if err := inst.SetAngle(objectAsString(args[0]), angle); err != nil {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["add_angle"] = &tengo.UserFunction{Name: "add_angle", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		piece := objectAsString(args[0])
		delta, ok := tengo.ToFloat64(args[1])
		c, found := inst.Cursor(piece)
		if !ok || !found {
			return tengo.FalseValue, nil
		}
		if err := inst.SetAngle(piece, c.Angle+delta); err != nil {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["cursor"] = &tengo.UserFunction{Name: "cursor", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.UndefinedValue, nil
		}
		c, ok := inst.Cursor(objectAsString(args[0]))
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"state":      &tengo.String{Value: c.StateLabel},
			"component":  &tengo.Int{Value: int64(c.ComponentIt)},
			"delta_time": &tengo.Float{Value: c.DeltaTime},
			"flip":       boolObject(c.Flip),
			"angle":      &tengo.Float{Value: c.Angle},
		}}, nil
	}}

	values["elapsed_ms"] = &tengo.UserFunction{Name: "elapsed_ms", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: d.elapsed}, nil
	}}

	values["pieces"] = &tengo.UserFunction{Name: "pieces", Value: func(args ...tengo.Object) (tengo.Object, error) {
		cursors := inst.Cursors()
		out := make([]tengo.Object, 0, len(cursors))
		for _, pc := range cursors {
			out = append(out, &tengo.String{Value: pc.Piece})
		}
		return &tengo.ImmutableArray{Value: out}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func boolObject(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
