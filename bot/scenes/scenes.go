// Package scenes declares the bot's dialogue flows: onboarding, code
// verification, the main menu, free search, saved-command management and the
// user list.
package scenes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/searchbot/bot/domain"
	"github.com/m3rciful/searchbot/bot/search"
	"github.com/m3rciful/searchbot/core/scene"
)

// Scene identifiers.
const (
	Default       scene.ID = "default"
	Verify        scene.ID = "verify"
	Main          scene.ID = "main"
	Search        scene.ID = "search"
	AddCommand    scene.ID = "add_command"
	RemoveCommand scene.ID = "remove_command"
	UserList      scene.ID = "user_list"
)

// Quick-reply button labels.
const (
	btnCancel = "❌ Cancel"
	btnBack   = "🔙 Back"
	btnSkip   = "➡️ Skip"
	btnSave   = "📔 Save"
	btnDelete = "🗑 Delete"
	btnStop   = "✋ Stop ⏹"
)

// baseCommands are the built-in menu entries. Saved commands may not shadow
// them.
var baseCommands = []string{
	"/search",
	"/addcmd",
	"/delcmd",
	"/users",
	"/blocked",
}

// Users is the user-service surface the scenes consume.
type Users interface {
	FindUser(ctx context.Context, telegramID int64) (*domain.User, error)
	CreateUser(ctx context.Context, telegramID int64, fullName, username string) (string, error)
	UpdateProfile(ctx context.Context, telegramID int64, fullName, username string) error
	MarkVerified(ctx context.Context, telegramID int64, submittedCode string) error
	RequireActive(ctx context.Context, telegramID int64) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Commands is the command-service surface the scenes consume.
type Commands interface {
	CommandExists(ctx context.Context, telegramID int64, command string) (bool, error)
	GetCommand(ctx context.Context, telegramID int64, command string) (*domain.SearchCommand, error)
	AddCommand(ctx context.Context, telegramID int64, command, keyword, description string) error
	RemoveCommand(ctx context.Context, telegramID int64, command string) error
	ListCommands(ctx context.Context, telegramID int64) ([]domain.SearchCommand, error)
}

// Searcher runs one query under a device profile.
type Searcher interface {
	Search(ctx context.Context, query string, profile search.Profile) ([]search.Result, error)
}

// Notifier delivers out-of-band messages to the administrator.
type Notifier interface {
	NotifyAdmin(ctx context.Context, text string) error
}

// Deps bundles the collaborators every scene handler may reach.
type Deps struct {
	Users    Users
	Commands Commands
	Search   Searcher
	Notify   Notifier
}

func (d Deps) validate() error {
	if d.Users == nil {
		return fmt.Errorf("scenes: nil Users")
	}
	if d.Commands == nil {
		return fmt.Errorf("scenes: nil Commands")
	}
	if d.Search == nil {
		return fmt.Errorf("scenes: nil Search")
	}
	if d.Notify == nil {
		return fmt.Errorf("scenes: nil Notify")
	}
	return nil
}

// Build registers all scenes and returns the registry the engine runs on.
func Build(d Deps) (*scene.Registry, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	reg := scene.NewRegistry()
	err := reg.Register(
		defaultScene(d),
		verifyScene(d),
		mainScene(d),
		searchScene(d),
		addCommandScene(d),
		removeCommandScene(d),
		userListScene(d),
	)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// cancelHandlers is the shared navigation prefix: cancel exits the whole
// flow, back pops one checkpoint.
func cancelHandlers() []scene.Handler {
	return []scene.Handler{
		scene.On(scene.Exact(btnCancel), func(t *scene.Turn) (scene.Directive, error) {
			if err := t.Send("Cancelled."); err != nil {
				return scene.Stay(), err
			}
			return scene.Exit(), nil
		}),
		scene.On(scene.Exact(btnBack), func(t *scene.Turn) (scene.Directive, error) {
			if err := t.Send("Back."); err != nil {
				return scene.Stay(), err
			}
			return scene.Back(), nil
		}),
	}
}

// recovery maps a user-state failure to the scene that can repair it:
// unregistered identities restart onboarding, unverified ones go back to
// code entry.
func recovery(err error) (scene.Directive, bool) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return scene.Goto(Default), true
	case errors.Is(err, domain.ErrUserNotActive):
		return scene.Goto(Verify), true
	}
	return scene.Stay(), false
}

func isBaseCommand(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, cmd := range baseCommands {
		if cmd == text {
			return true
		}
	}
	return false
}

// numberedSection renders a titled numbered list.
func numberedSection(title string, items []string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return strings.TrimRight(b.String(), "\n")
}
