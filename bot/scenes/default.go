package scenes

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/searchbot/bot/domain"
	"github.com/m3rciful/searchbot/core/logger"
	"github.com/m3rciful/searchbot/core/scene"
)

// defaultScene is the landing state. It resets stale session state on enter
// and only reacts to /start: known active users go straight to the menu,
// unverified ones back to code entry, and unknown identities get registered
// with a fresh verification code that is forwarded to the admin.
func defaultScene(d Deps) *scene.Scene {
	handle := func(t *scene.Turn) (scene.Directive, error) {
		if !strings.EqualFold(strings.TrimSpace(t.Text), "/start") {
			if err := t.Send("You need to /start first."); err != nil {
				return scene.Stay(), err
			}
			return scene.Stay(), nil
		}

		u, err := d.Users.FindUser(t.Ctx, t.From.ID)
		switch {
		case err == nil:
			if err := d.Users.UpdateProfile(t.Ctx, t.From.ID, t.From.FullName, t.From.Username); err != nil {
				return scene.Stay(), err
			}
			if !u.Verified {
				if err := t.Send("Your account is not active yet :("); err != nil {
					return scene.Stay(), err
				}
				return scene.Goto(Verify), nil
			}
			return scene.Goto(Main), nil

		case errors.Is(err, domain.ErrUserNotFound):
			code, err := d.Users.CreateUser(t.Ctx, t.From.ID, t.From.FullName, t.From.Username)
			if err != nil {
				return scene.Stay(), err
			}
			notice := fmt.Sprintf("Verification code for @%s\n%s", t.From.Username, code)
			if err := d.Notify.NotifyAdmin(t.Ctx, notice); err != nil {
				// The code stays in the store, so the admin can still
				// recover it; don't fail the user's onboarding.
				logger.Warn(t.Ctx, "scene", "notify.admin.fail",
					slog.Int64("user_id", t.From.ID),
					slog.String("err", err.Error()),
				)
			}
			if err := t.Send(fmt.Sprintf("Welcome, %s :)", t.From.FullName)); err != nil {
				return scene.Stay(), err
			}
			return scene.Goto(Verify), nil

		default:
			return scene.Stay(), err
		}
	}

	return &scene.Scene{
		ID:                  Default,
		OnEnter:             handle,
		Fallback:            handle,
		ResetDataOnEnter:    true,
		ResetHistoryOnEnter: true,
	}
}
