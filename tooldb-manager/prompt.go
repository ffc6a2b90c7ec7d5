package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/pkg/errors"

	"github.com/hzeller/tooldb/tooldb"
)

var errAborted = errors.New("aborted")

func askOne(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	if err := survey.AskOne(p, response, opts...); err != nil {
		if err == terminal.InterruptErr {
			return errAborted
		}
		return err
	}
	return nil
}

// surveyChooser lets the user pick the library for a new tool.
func surveyChooser(choices []tooldb.LibraryChoice, preselected int) (int, error) {
	options := make([]string, len(choices))
	for i, c := range choices {
		options[i] = c.String()
	}
	choice := 0
	prompt := &survey.Select{
		Message: "Please select the library:",
		Options: options,
		Default: options[preselected-1],
	}
	if err := askOne(prompt, &choice); err != nil {
		return 0, err
	}
	return choice + 1, nil
}

// surveySupplier asks for the tool parameters; enter accepts the default.
type surveySupplier struct{}

func (surveySupplier) Label(shape string) (string, error) {
	var label string
	prompt := &survey.Input{Message: "Please enter a tool name (label):", Default: "New " + shape}
	if err := askOne(prompt, &label, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return label, nil
}

func (surveySupplier) Value(p tooldb.Property) (any, error) {
	msg := fmt.Sprintf("%s/%s", p.Group, p.Name)
	if p.Unit != "" {
		msg += " (" + p.Unit + ")"
	}
	if len(p.Enum) > 0 {
		var choice string
		prompt := &survey.Select{Message: msg + ":", Options: p.Enum}
		if p.Allows(p.Default) {
			prompt.Default = fmt.Sprint(p.Default)
		}
		if err := askOne(prompt, &choice); err != nil {
			return nil, err
		}
		return choice, nil
	}

	var input string
	prompt := &survey.Input{Message: msg + ":"}
	if p.Default != nil {
		prompt.Default = fmt.Sprint(p.Default)
	}
	validate := func(ans interface{}) error {
		_, err := p.Coerce(fmt.Sprint(ans))
		return err
	}
	if err := askOne(prompt, &input, survey.WithValidator(validate)); err != nil {
		return nil, err
	}
	return p.Coerce(input)
}
