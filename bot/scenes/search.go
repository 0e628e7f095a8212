package scenes

import (
	"strings"

	"github.com/m3rciful/searchbot/bot/search"
	"github.com/m3rciful/searchbot/core/scene"
)

// searchScene turns every message into a query until the user stops or
// cancels. Each query runs under both device profiles.
func searchScene(d Deps) *scene.Scene {
	leave := func(t *scene.Turn) (scene.Directive, error) {
		return scene.Goto(Main), nil
	}

	return &scene.Scene{
		ID: Search,
		OnEnter: func(t *scene.Turn) (scene.Directive, error) {
			if err := t.Send("Enter a search keyword:", []string{btnCancel}); err != nil {
				return scene.Stay(), err
			}
			return scene.Stay(), nil
		},
		Handlers: []scene.Handler{
			scene.On(scene.Exact(btnStop), leave),
			scene.On(scene.Exact(btnCancel), leave),
		},
		Fallback: func(t *scene.Turn) (scene.Directive, error) {
			if err := d.Users.RequireActive(t.Ctx, t.From.ID); err != nil {
				if dir, ok := recovery(err); ok {
					return dir, nil
				}
				return scene.Stay(), err
			}
			if err := t.Send("Searching..."); err != nil {
				return scene.Stay(), err
			}
			reply, ok, err := searchBothProfiles(t, d, t.Text)
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
			if err := t.Send(reply, []string{btnStop}); err != nil {
				return scene.Stay(), err
			}
			return scene.Stay(), nil
		},
	}
}

// searchBothProfiles runs the query under the mobile and desktop profiles
// and renders the two result sections. ok is false when neither profile
// returned a hit; an error means both lookups failed.
func searchBothProfiles(t *scene.Turn, d Deps, query string) (string, bool, error) {
	mobile, mErr := d.Search.Search(t.Ctx, query, search.ProfileMobile)
	desktop, dErr := d.Search.Search(t.Ctx, query, search.ProfileDesktop)
	if mErr != nil && dErr != nil {
		return "", false, mErr
	}
	if len(mobile) == 0 && len(desktop) == 0 {
		return "", false, nil
	}

	sections := []string{
		numberedSection("Mobile results:", resultStrings(mobile)),
		numberedSection("Desktop results:", resultStrings(desktop)),
	}
	return strings.Join(sections, "\n\n"), true, nil
}

func resultStrings(results []search.Result) []string {
	items := make([]string, 0, len(results))
	for _, r := range results {
		items = append(items, r.String())
	}
	return items
}
