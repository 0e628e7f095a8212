package scenes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/searchbot/bot/domain"
	"github.com/m3rciful/searchbot/core/scene"
)

var addQuestions = []string{
	"Enter the new command: (example: /adele)",
	"Enter the keyword:",
	"Enter a description (optional):",
}

// Answer keys owned by the add-command scene.
const (
	keyCmd     = "cmd"
	keyKeyword = "keyword"
	keyDesc    = "desc"
)

// addCommandScene walks through three questions (command, keyword, optional
// description) and a final confirmation step before persisting the record.
func addCommandScene(d Deps) *scene.Scene {
	maxStep := len(addQuestions)

	onEnter := func(t *scene.Turn) (scene.Directive, error) {
		step := t.Session.Step()
		if step < maxStep {
			var row []string
			if step > 0 {
				row = append(row, btnBack)
			}
			if step+1 == maxStep {
				row = append(row, btnSkip)
			}
			row = append(row, btnCancel)
			if err := t.Send(addQuestions[step], row); err != nil {
				return scene.Stay(), err
			}
			return scene.Stay(), nil
		}

		answers := t.Session.Answers()
		summary := numberedSection("Command info:", []string{
			"Command: " + answers[keyCmd],
			"Keyword: " + answers[keyKeyword],
			"Description: " + answers[keyDesc],
		}) + "\n\nSave?"
		if err := t.Send(summary, []string{btnSave, btnCancel}); err != nil {
			return scene.Stay(), err
		}
		return scene.Stay(), nil
	}

	answer := func(t *scene.Turn) (scene.Directive, error) {
		step := t.Session.Step()
		text := strings.TrimSpace(t.Text)

		switch {
		case step == 0:
			if !strings.HasPrefix(text, "/") {
				if err := t.Send("The command must start with /"); err != nil {
					return scene.Stay(), err
				}
				return scene.Stay(), nil
			}
			if isBaseCommand(text) {
				if err := t.Send("This command is reserved, pick another one"); err != nil {
					return scene.Stay(), err
				}
				return scene.Stay(), nil
			}
			exists, err := d.Commands.CommandExists(t.Ctx, t.From.ID, text)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrUserNotFound):
				return scene.Goto(Default), nil
			default:
				if sendErr := t.Send(fmt.Sprintf("Error: %v", err)); sendErr != nil {
					return scene.Stay(), sendErr
				}
				return scene.Stay(), nil
			}
			if exists {
				if err := t.Send("This command already exists, pick another one"); err != nil {
					return scene.Stay(), err
				}
				return scene.Stay(), nil
			}
			t.Session.SetAnswer(keyCmd, text)

		case step == 1:
			t.Session.SetAnswer(keyKeyword, text)

		case step == 2:
			if text == btnSkip {
				text = ""
			}
			t.Session.SetAnswer(keyDesc, text)

		default:
			if text != btnSave {
				if err := t.Send("Unknown answer."); err != nil {
					return scene.Stay(), err
				}
				return scene.Stay(), nil
			}
			answers := t.Session.Answers()
			err := d.Commands.AddCommand(t.Ctx, t.From.ID,
				answers[keyCmd], answers[keyKeyword], answers[keyDesc])
			switch {
			case err == nil:
				if err := t.Send("New command saved"); err != nil {
					return scene.Stay(), err
				}
				return scene.Goto(Main), nil
			case errors.Is(err, domain.ErrCommandAlreadyExists):
				if err := t.Send("This command already exists, pick another one"); err != nil {
					return scene.Stay(), err
				}
				return scene.Stay(), nil
			case errors.Is(err, domain.ErrUserNotFound):
				return scene.Goto(Default), nil
			default:
				if sendErr := t.Send(fmt.Sprintf("Error: %v", err)); sendErr != nil {
					return scene.Stay(), sendErr
				}
				return scene.Stay(), nil
			}
		}

		return scene.Retake(step + 1), nil
	}

	return &scene.Scene{
		ID:               AddCommand,
		OnEnter:          onEnter,
		Handlers:         stepNavHandlers(),
		Fallback:         answer,
		ResetDataOnEnter: true,
	}
}

// stepNavHandlers are the back/cancel handlers shared by the step-sequenced
// scenes. Back from the first question leaves the flow entirely; cancel
// always returns to the menu.
func stepNavHandlers() []scene.Handler {
	return []scene.Handler{
		scene.On(scene.Exact(btnBack), func(t *scene.Turn) (scene.Directive, error) {
			step := t.Session.Step()
			if step-1 < 0 {
				return scene.Exit(), nil
			}
			return scene.Retake(step - 1), nil
		}),
		scene.On(scene.Exact(btnCancel), func(t *scene.Turn) (scene.Directive, error) {
			return scene.Goto(Main), nil
		}),
	}
}
