package scenes

import (
	"github.com/m3rciful/searchbot/core/scene"
)

// userListScene lists every registered user. The Delete/Blacklist actions
// are placeholders and only acknowledge the input.
func userListScene(d Deps) *scene.Scene {
	return &scene.Scene{
		ID: UserList,
		OnEnter: func(t *scene.Turn) (scene.Directive, error) {
			if err := d.Users.RequireActive(t.Ctx, t.From.ID); err != nil {
				if dir, ok := recovery(err); ok {
					return dir, nil
				}
				return scene.Stay(), err
			}

			users, err := d.Users.ListUsers(t.Ctx)
			if err != nil {
				return scene.Stay(), err
			}
			if len(users) == 0 {
				if err := t.Send("No users yet :("); err != nil {
					return scene.Stay(), err
				}
				return scene.Stay(), nil
			}

			items := make([]string, 0, len(users))
			for _, u := range users {
				items = append(items, u.String())
			}
			text := numberedSection("Current users:", items) + "\n\nPick an action"
			if err := t.Send(text, []string{"Delete", "Blacklist"}, []string{btnBack}); err != nil {
				return scene.Stay(), err
			}
			return scene.Stay(), nil
		},
		Handlers: []scene.Handler{
			scene.On(scene.Exact(btnBack), func(t *scene.Turn) (scene.Directive, error) {
				return scene.Goto(Main), nil
			}),
		},
		Fallback: func(t *scene.Turn) (scene.Directive, error) {
			if err := t.Send("I don't understand."); err != nil {
				return scene.Stay(), err
			}
			return scene.Stay(), nil
		},
	}
}
