package bot

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/searchbot/bot/scenes"
	"github.com/m3rciful/searchbot/bot/search"
	"github.com/m3rciful/searchbot/bot/service"
	"github.com/m3rciful/searchbot/bot/storage"
	corebootstrap "github.com/m3rciful/searchbot/core/bootstrap"
	corecmd "github.com/m3rciful/searchbot/core/cmd"
	"github.com/m3rciful/searchbot/core/scene"
	coretelegram "github.com/m3rciful/searchbot/core/telegram"
)

// App is the assembled bot: engine, storage and the admin notifier.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	engine   *scene.Engine
	notifier *AdminNotifier
}

// LoadConfig adapts Load to the generic runner's signature.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return Load(path)
}

// Bootstrap initializes infrastructure (logger, database, migrations) and
// assembles the services, scenes and dialogue engine.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	userRepo := storage.NewUsers(res.DB)
	commandRepo := storage.NewCommands(res.DB)

	users := service.NewUsers(userRepo)
	commands := service.NewCommands(commandRepo, userRepo)
	searcher := search.NewClient(cfg.Search)
	notifier := NewAdminNotifier(cfg.Telegram.AdminID)

	registry, err := scenes.Build(scenes.Deps{
		Users:    users,
		Commands: commands,
		Search:   searcher,
		Notify:   notifier,
	})
	if err != nil {
		return nil, err
	}

	engine, err := scene.NewEngine(registry, scene.NewMemoryStore(), scenes.Default)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		db:       res.DB,
		engine:   engine,
		notifier: notifier,
	}, nil
}

// TelegramRunOptions builds the runtime options for the generic runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes: []coretelegram.Route{
			{Endpoint: tele.OnText, Handler: a.onText},
		},
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.notifier.Attach(rt.Bot)
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			return a.db.Close()
		},
	}, nil
}
