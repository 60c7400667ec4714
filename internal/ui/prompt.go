package ui

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrNotInteractive is returned by prompts when there is no terminal to ask on.
var ErrNotInteractive = errors.New("no terminal for prompt")

// Confirm asks a yes/no question. Off a terminal it returns def and
// ErrNotInteractive. Ctrl+C answers no.
func Confirm(message string, def bool) (bool, error) {
	if !IsInteractive() {
		return def, ErrNotInteractive
	}
	answer := def
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &answer)
	if errors.Is(err, terminal.InterruptErr) {
		return false, nil
	}
	return answer, err
}

// Choose asks the user to pick one option and returns its index. Off a
// terminal it returns def and ErrNotInteractive.
func Choose(message string, options []string, def int) (int, error) {
	if !IsInteractive() {
		return def, ErrNotInteractive
	}
	selected := def
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		Default:  options[def],
		PageSize: len(options),
	}
	err := survey.AskOne(prompt, &selected)
	if errors.Is(err, terminal.InterruptErr) {
		return -1, err
	}
	return selected, err
}
