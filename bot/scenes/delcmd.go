package scenes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/searchbot/bot/domain"
	"github.com/m3rciful/searchbot/core/scene"
)

// removeCommandScene asks which command to drop, verifies it exists, and
// requires an explicit delete confirmation before touching the store.
func removeCommandScene(d Deps) *scene.Scene {
	onEnter := func(t *scene.Turn) (scene.Directive, error) {
		step := t.Session.Step()
		question := "Which command do you want to remove?"
		row := []string{btnCancel}
		if step > 0 {
			row = append(row, btnBack)
		}
		if step == 1 {
			question = fmt.Sprintf("Are you sure you want to remove %s?", t.Session.Answers()[keyCmd])
			row = append(row, btnDelete)
		}
		if err := t.Send(question, row); err != nil {
			return scene.Stay(), err
		}
		return scene.Stay(), nil
	}

	answer := func(t *scene.Turn) (scene.Directive, error) {
		step := t.Session.Step()
		text := strings.TrimSpace(t.Text)

		if step == 0 {
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
			if !exists {
				if err := t.Send("This command does not exist."); err != nil {
					return scene.Stay(), err
				}
				return scene.Stay(), nil
			}
			t.Session.SetAnswer(keyCmd, text)
			return scene.Retake(1), nil
		}

		if text != btnDelete {
			if err := t.Send("Unknown answer."); err != nil {
				return scene.Stay(), err
			}
			return scene.Stay(), nil
		}
		err := d.Commands.RemoveCommand(t.Ctx, t.From.ID, t.Session.Answers()[keyCmd])
		switch {
		case err == nil:
			if err := t.Send("Command removed."); err != nil {
				return scene.Stay(), err
			}
			return scene.Goto(Main), nil
		case errors.Is(err, domain.ErrCommandNotFound):
			if err := t.Send("This command does not exist."); err != nil {
				return scene.Stay(), err
			}
			return scene.Goto(Main), nil
		case errors.Is(err, domain.ErrUserNotFound):
			return scene.Goto(Default), nil
		default:
			if sendErr := t.Send(fmt.Sprintf("Error: %v", err)); sendErr != nil {
				return scene.Stay(), sendErr
			}
			return scene.Stay(), nil
		}
	}

	return &scene.Scene{
		ID:               RemoveCommand,
		OnEnter:          onEnter,
		Handlers:         stepNavHandlers(),
		Fallback:         answer,
		ResetDataOnEnter: true,
	}
}
