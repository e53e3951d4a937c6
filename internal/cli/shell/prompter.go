package shell

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrQuit is returned by a Prompter when the user interrupts input
// (Ctrl+C or end of input). The shell treats it as a request to exit.
var ErrQuit = errors.New("quit")

// Prompter reads answers from the user. Screens only talk to the terminal
// through it so they can be driven by a script in tests.
type Prompter interface {
	Input(label, defaultValue string) (string, error)
	Password(label string) (string, error)
	Select(label string, items []string) (int, error)
	Confirm(label string) (bool, error)
}

// TerminalPrompter implements Prompter with promptui, and x/term for
// passwords when stdin is a terminal.
type TerminalPrompter struct{}

// NewTerminalPrompter returns a Prompter bound to stdin/stdout
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{}
}

func (p *TerminalPrompter) Input(label, defaultValue string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: defaultValue,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", translate(err)
	}
	return strings.TrimSpace(value), nil
}

func (p *TerminalPrompter) Password(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Printf("%s: ", label)
		bytePassword, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(bytePassword), nil
	}

	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}
	value, err := prompt.Run()
	if err != nil {
		return "", translate(err)
	}
	return value, nil
}

func (p *TerminalPrompter) Select(label string, items []string) (int, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "{{ . | green }}",
		},
	}
	index, _, err := prompt.Run()
	if err != nil {
		return -1, translate(err)
	}
	return index, nil
}

func (p *TerminalPrompter) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, translate(err)
	}
	return true, nil
}

func translate(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrQuit
	}
	return fmt.Errorf("failed to read input: %w", err)
}

// AssumeYes wraps p so every confirmation is accepted without asking
func AssumeYes(p Prompter) Prompter {
	return yesPrompter{p}
}

type yesPrompter struct {
	Prompter
}

func (yesPrompter) Confirm(string) (bool, error) {
	return true, nil
}
