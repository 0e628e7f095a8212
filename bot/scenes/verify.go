package scenes

import (
	"errors"
	"fmt"

	"github.com/m3rciful/searchbot/bot/domain"
	"github.com/m3rciful/searchbot/core/scene"
)

// verifyScene loops on free-text code entry until the submitted code
// matches. There is no attempt limit.
func verifyScene(d Deps) *scene.Scene {
	return &scene.Scene{
		ID: Verify,
		OnEnter: func(t *scene.Turn) (scene.Directive, error) {
			if err := t.Send("Enter your access code:"); err != nil {
				return scene.Stay(), err
			}
			return scene.Stay(), nil
		},
		Fallback: func(t *scene.Turn) (scene.Directive, error) {
			if err := t.Send("Checking the code..."); err != nil {
				return scene.Stay(), err
			}
			err := d.Users.MarkVerified(t.Ctx, t.From.ID, t.Text)
			switch {
			case err == nil:
				if err := t.Send("Code accepted 🥳"); err != nil {
					return scene.Stay(), err
				}
				return scene.Goto(Main), nil
			case errors.Is(err, domain.ErrVerifyCodeWrong):
				if err := t.Send("Wrong code, try again:"); err != nil {
					return scene.Stay(), err
				}
				return scene.Stay(), nil
			case errors.Is(err, domain.ErrUserNotFound):
				return scene.Goto(Default), nil
			default:
				if err := t.Send(fmt.Sprintf("Error: %v", err)); err != nil {
					return scene.Stay(), err
				}
				return scene.Stay(), nil
			}
		},
	}
}
