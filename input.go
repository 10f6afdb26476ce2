package main

import (
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const stickDeadZone = 0.3

// Input holds the viewer controls polled once per tick.
type Input struct {
	// Rotate is -1, 0 or +1 while an angle key is held.
	Rotate float64
	// The rest are true on the frame their key was pressed.
	ToggleEditor bool
	TogglePause  bool
	Reload       bool
	NextActor    bool
	Flip         bool
	ResetAngle   bool
}

func NewInput() *Input {
	return &Input{}
}

// Update polls the keyboard and the first gamepad.
func (i *Input) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		os.Exit(0)
	}

	var rotate float64
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		rotate -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		rotate += 1
	}

	var gpFlip, gpNext, gpPause bool
	if ids := ebiten.GamepadIDs(); len(ids) > 0 {
		gid := ids[0]

		leftX := ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisLeftStickHorizontal)
		if leftX < -stickDeadZone {
			rotate = -1
		} else if leftX > stickDeadZone {
			rotate = 1
		}

		gpFlip = inpututil.IsStandardGamepadButtonJustPressed(gid, ebiten.StandardGamepadButtonRightBottom)
		gpNext = inpututil.IsStandardGamepadButtonJustPressed(gid, ebiten.StandardGamepadButtonFrontTopRight)
		gpPause = inpututil.IsStandardGamepadButtonJustPressed(gid, ebiten.StandardGamepadButtonCenterRight)
	}

	i.Rotate = rotate
	i.ToggleEditor = inpututil.IsKeyJustPressed(ebiten.KeyE)
	i.TogglePause = inpututil.IsKeyJustPressed(ebiten.KeyP) || gpPause
	i.Reload = inpututil.IsKeyJustPressed(ebiten.KeyR)
	i.NextActor = inpututil.IsKeyJustPressed(ebiten.KeyTab) || gpNext
	i.Flip = inpututil.IsKeyJustPressed(ebiten.KeyF) || gpFlip
	i.ResetAngle = inpututil.IsKeyJustPressed(ebiten.KeyDown)
}
