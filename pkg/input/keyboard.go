package input

import (
	"github.com/eiannone/keyboard"

	"github.com/trytobebee/snakeai/pkg/autopilot"
	"github.com/trytobebee/snakeai/pkg/grid"
)

// KeyboardHandler handles keyboard input
type KeyboardHandler struct {
	inputChan chan KeyInput
}

// KeyInput represents a keyboard input event
type KeyInput struct {
	Char rune
	Key  keyboard.Key
}

// NewKeyboardHandler creates a new keyboard input handler
func NewKeyboardHandler() *KeyboardHandler {
	return &KeyboardHandler{
		inputChan: make(chan KeyInput),
	}
}

// Start begins listening for keyboard input
func (h *KeyboardHandler) Start() error {
	if err := keyboard.Open(); err != nil {
		return err
	}

	go func() {
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			h.inputChan <- KeyInput{Char: char, Key: key}
		}
	}()

	return nil
}

// Stop stops the keyboard handler
func (h *KeyboardHandler) Stop() {
	keyboard.Close()
}

// GetInputChan returns the input channel
func (h *KeyboardHandler) GetInputChan() <-chan KeyInput {
	return h.inputChan
}

// ParseHeading maps arrow keys and WASD to a heading
func ParseHeading(input KeyInput) (grid.Heading, bool) {
	switch input.Key {
	case keyboard.KeyArrowUp:
		return grid.Up, true
	case keyboard.KeyArrowDown:
		return grid.Down, true
	case keyboard.KeyArrowLeft:
		return grid.Left, true
	case keyboard.KeyArrowRight:
		return grid.Right, true
	}

	switch input.Char {
	case 'w', 'W':
		return grid.Up, true
	case 's', 'S':
		return grid.Down, true
	case 'a', 'A':
		return grid.Left, true
	case 'd', 'D':
		return grid.Right, true
	}

	return grid.None, false
}

// ParseLevel maps the digit keys 1-3 to an autopilot level
func ParseLevel(input KeyInput) (autopilot.Level, bool) {
	switch input.Char {
	case '1':
		return autopilot.Basic, true
	case '2':
		return autopilot.Smart, true
	case '3':
		return autopilot.Genius, true
	}
	return autopilot.Basic, false
}

// ParseSpeedDelta returns +1 or -1 for the speed keys
func ParseSpeedDelta(input KeyInput) (int, bool) {
	switch input.Char {
	case '+', '=':
		return 1, true
	case '-', '_':
		return -1, true
	}
	return 0, false
}

// IsQuit checks if the input is a quit command
func IsQuit(input KeyInput) bool {
	return input.Char == 'q' || input.Char == 'Q' || input.Key == keyboard.KeyCtrlC || input.Key == keyboard.KeyEsc
}

// IsRestart checks if the input is a restart command
func IsRestart(input KeyInput) bool {
	return input.Char == 'r' || input.Char == 'R'
}

// IsPause checks if the input is a pause command
func IsPause(input KeyInput) bool {
	return input.Char == 'p' || input.Char == 'P' || input.Key == keyboard.KeySpace
}

// IsAutopilotToggle checks if the input turns the autopilot on or off
func IsAutopilotToggle(input KeyInput) bool {
	return input.Char == 't' || input.Char == 'T'
}

// IsModeToggle checks if the input switches between open and walled boards
func IsModeToggle(input KeyInput) bool {
	return input.Char == 'm' || input.Char == 'M'
}

// IsPowerUpToggle checks if the input turns power-ups on or off
func IsPowerUpToggle(input KeyInput) bool {
	return input.Char == 'u' || input.Char == 'U'
}
