package bot

import (
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/searchbot/core/logger"
	"github.com/m3rciful/searchbot/core/scene"
	tghelpers "github.com/m3rciful/searchbot/core/telegram/helpers"
	"github.com/m3rciful/searchbot/core/telegram/keyboard"
)

// teleResponder adapts a telebot context to the engine's Responder: quick
// reply rows become a reply keyboard, no rows hides the keyboard.
type teleResponder struct {
	c tele.Context
}

func (r teleResponder) Send(text string, rows ...[]string) error {
	if len(rows) == 0 {
		return tghelpers.SendKeyboard(r.c, text, keyboard.RemoveKeyboard())
	}
	return tghelpers.SendKeyboard(r.c, text, keyboard.ReplyButtons(rows...))
}

func turnUser(sender *tele.User) scene.User {
	if sender == nil {
		return scene.User{}
	}
	return scene.User{
		ID:       sender.ID,
		FullName: strings.TrimSpace(strings.TrimSpace(sender.FirstName) + " " + strings.TrimSpace(sender.LastName)),
		Username: sender.Username,
	}
}

// onText feeds every inbound text message through the dialogue engine.
func (a *App) onText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ctx := tghelpers.WithHandler(c, "scene.turn")
	err := a.engine.HandleTurn(ctx, turnUser(sender), c.Text(), teleResponder{c: c})
	if err != nil {
		logger.Error(ctx, "scene", "turn.fail",
			slog.Int64("user_id", sender.ID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, "Something went wrong, please try again.")
	}
	return nil
}
