package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-cms-forms/pkg/model"
)

// DefaultPageSize is how many choices a select prompt shows at once.
const DefaultPageSize = 10

// InputConfig configures a single-line text or password prompt.
type InputConfig struct {
	Message string
	Default string
	Help    string
}

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// ChoiceConfig configures a pick among remote options. Selected holds the
// ids already chosen in the draft; the driver preselects them.
type ChoiceConfig struct {
	Message  string
	Help     string
	Options  []model.Option
	Selected []int64
	PageSize int
}

// TextAreaConfig configures a multi-line text prompt.
type TextAreaConfig struct {
	Message string
	Default string
	Help    string
}

// PromptDriver abstracts the terminal so prompt logic can be tested without
// one. Select and MultiSelect return indices into ChoiceConfig.Options;
// Select returns -1 when nothing was picked.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg ChoiceConfig) (int, error)
	MultiSelect(ctx context.Context, cfg ChoiceConfig) ([]int, error)
	TextArea(ctx context.Context, cfg TextAreaConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns the interactive driver. Info lines go to out, or to
// stdout when out is nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

// ask runs one survey prompt, honouring ctx and mapping Ctrl-C to ErrAborted.
func (d *surveyDriver) ask(ctx context.Context, prompt survey.Prompt, response any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := survey.AskOne(prompt, response); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return ErrAborted
		}
		return err
	}
	return nil
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var out string
	err := d.ask(ctx, &survey.Input{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, &out)
	return out, err
}

func (d *surveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	var out string
	err := d.ask(ctx, &survey.Password{Message: cfg.Message, Help: cfg.Help}, &out)
	return out, err
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	var out bool
	err := d.ask(ctx, &survey.Confirm{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, &out)
	return out, err
}

func (d *surveyDriver) Select(ctx context.Context, cfg ChoiceConfig) (int, error) {
	labels := choiceLabels(cfg.Options)
	prompt := &survey.Select{
		Message:  cfg.Message,
		Options:  labels,
		Help:     cfg.Help,
		PageSize: pageSize(cfg.PageSize),
	}
	if preset := selectedLabels(cfg.Options, labels, cfg.Selected); len(preset) > 0 {
		prompt.Default = preset[0]
	}
	// survey answers with the index when the response is an OptionAnswer.
	var out survey.OptionAnswer
	if err := d.ask(ctx, prompt, &out); err != nil {
		return -1, err
	}
	return out.Index, nil
}

func (d *surveyDriver) MultiSelect(ctx context.Context, cfg ChoiceConfig) ([]int, error) {
	labels := choiceLabels(cfg.Options)
	prompt := &survey.MultiSelect{
		Message:  cfg.Message,
		Options:  labels,
		Help:     cfg.Help,
		PageSize: pageSize(cfg.PageSize),
	}
	if preset := selectedLabels(cfg.Options, labels, cfg.Selected); len(preset) > 0 {
		prompt.Default = preset
	}
	var out []survey.OptionAnswer
	if err := d.ask(ctx, prompt, &out); err != nil {
		return nil, err
	}
	indices := make([]int, 0, len(out))
	for _, answer := range out {
		indices = append(indices, answer.Index)
	}
	return indices, nil
}

func (d *surveyDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	var out string
	err := d.ask(ctx, &survey.Multiline{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, &out)
	return out, err
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func pageSize(n int) int {
	if n > 0 {
		return n
	}
	return DefaultPageSize
}

// choiceLabels renders options by label. Labels shared by several options
// get their id appended so every choice stays distinguishable.
func choiceLabels(options []model.Option) []string {
	counts := make(map[string]int, len(options))
	for _, opt := range options {
		counts[opt.Label]++
	}
	labels := make([]string, len(options))
	for i, opt := range options {
		id := "#" + strconv.FormatInt(opt.ID, 10)
		switch {
		case opt.Label == "":
			labels[i] = id
		case counts[opt.Label] > 1:
			labels[i] = opt.Label + " " + id
		default:
			labels[i] = opt.Label
		}
	}
	return labels
}

func selectedLabels(options []model.Option, labels []string, ids []int64) []string {
	if len(ids) == 0 {
		return nil
	}
	var out []string
	for i, opt := range options {
		for _, id := range ids {
			if opt.ID == id {
				out = append(out, labels[i])
				break
			}
		}
	}
	return out
}
