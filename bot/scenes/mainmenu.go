package scenes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/searchbot/bot/domain"
	"github.com/m3rciful/searchbot/core/scene"
)

// mainScene renders the command menu and routes the base commands. Saved
// commands are dispatched by the fallback: any other "/" input is looked up
// in the store and its keyword searched under both device profiles.
func mainScene(d Deps) *scene.Scene {
	gated := func(target scene.ID) scene.HandlerFunc {
		return func(t *scene.Turn) (scene.Directive, error) {
			if err := d.Users.RequireActive(t.Ctx, t.From.ID); err != nil {
				if dir, ok := recovery(err); ok {
					return dir, nil
				}
				return scene.Stay(), err
			}
			return scene.Goto(target), nil
		}
	}

	onEnter := func(t *scene.Turn) (scene.Directive, error) {
		if err := d.Users.RequireActive(t.Ctx, t.From.ID); err != nil {
			if dir, ok := recovery(err); ok {
				return dir, nil
			}
			return scene.Stay(), err
		}

		sections := []string{numberedSection("Base commands:", baseCommands)}
		saved, err := d.Commands.ListCommands(t.Ctx, t.From.ID)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return scene.Stay(), err
		}
		if len(saved) > 0 {
			items := make([]string, 0, len(saved))
			for _, cmd := range saved {
				items = append(items, cmd.String())
			}
			sections = append(sections, numberedSection("Saved search commands:", items))
		}
		sections = append(sections, "Pick a command")

		if err := t.Send(strings.Join(sections, "\n\n")); err != nil {
			return scene.Stay(), err
		}
		return scene.Stay(), nil
	}

	fallback := func(t *scene.Turn) (scene.Directive, error) {
		text := strings.TrimSpace(t.Text)
		if !strings.HasPrefix(text, "/") {
			if err := t.Send("Unknown command."); err != nil {
				return scene.Stay(), err
			}
			return scene.Stay(), nil
		}

		cmd, err := d.Commands.GetCommand(t.Ctx, t.From.ID, text)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrCommandNotFound):
			if err := t.Send("Unknown command."); err != nil {
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

		if err := d.Users.RequireActive(t.Ctx, t.From.ID); err != nil {
			if dir, ok := recovery(err); ok {
				return dir, nil
			}
			return scene.Stay(), err
		}
		if err := t.Send("Searching..."); err != nil {
			return scene.Stay(), err
		}
		reply, ok, err := searchBothProfiles(t, d, cmd.Keyword)
		if err != nil {
			if sendErr := t.Send("Search failed, please try again later."); sendErr != nil {
				return scene.Stay(), sendErr
			}
			return scene.Stay(), nil
		}
		if !ok {
			if err := t.Send("No results."); err != nil {
				return scene.Stay(), err
			}
			return scene.Stay(), nil
		}
		if err := t.Send(reply); err != nil {
			return scene.Stay(), err
		}
		return scene.Stay(), nil
	}

	handlers := append(cancelHandlers(),
		scene.On(scene.Exact("/search"), gated(Search)),
		scene.On(scene.Exact("/addcmd"), gated(AddCommand)),
		scene.On(scene.Exact("/delcmd"), gated(RemoveCommand)),
		scene.On(scene.Exact("/users"), gated(UserList)),
		scene.On(scene.Exact("/start"), func(t *scene.Turn) (scene.Directive, error) {
			return scene.Goto(Default), nil
		}),
		scene.On(scene.Exact(btnStop), func(t *scene.Turn) (scene.Directive, error) {
			return scene.Retake(0), nil
		}),
	)

	return &scene.Scene{
		ID:       Main,
		OnEnter:  onEnter,
		Handlers: handlers,
		Fallback: fallback,
	}
}
