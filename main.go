package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"github.com/learningequality/kolibri-desktop/internal/assets"
	"github.com/learningequality/kolibri-desktop/internal/config"
	"github.com/learningequality/kolibri-desktop/internal/desktop"
	"github.com/learningequality/kolibri-desktop/internal/domain"
	"github.com/learningequality/kolibri-desktop/internal/i18n"
	"github.com/learningequality/kolibri-desktop/internal/locale"
	"github.com/learningequality/kolibri-desktop/internal/logging"
	"github.com/learningequality/kolibri-desktop/internal/state"
)

const (
	defaultWidth  = 1280
	defaultHeight = 800
	minWidth      = 1024
	minHeight     = 768
)

func main() {
	cfg := config.Load()
	if err := cfg.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "kolibri-desktop: prepare %s: %v\n", cfg.Home, err)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	log, logCloser, err := logging.Open(cfg.LogsDir(), level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kolibri-desktop: open logs: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	logging.Banner(log)
	if cfg.AttachMode() {
		log.Info().Str("url", cfg.AttachURL).Msg("Starting extra window")
	}

	opts := desktop.Options{Config: cfg, Log: log}

	width, height := defaultWidth, defaultHeight
	if !cfg.AttachMode() {
		store, err := state.Open(cfg.DBPath(), logging.Component(log, "state"))
		if err != nil {
			log.Warn().Err(err).Msg("Running without persisted state")
		} else {
			opts.Store = store
			if cfg.Language == "" {
				if lang, err := store.Setting(domain.SettingLanguage); err == nil {
					cfg.Language = lang
				}
			}
			if vs, err := store.ViewState(); err == nil && vs.WindowWidth >= minWidth && vs.WindowHeight >= minHeight {
				width, height = vs.WindowWidth, vs.WindowHeight
			}
		}
	}

	candidates := locale.Candidates(cfg.Language, locale.OS)
	opts.Translator = i18n.New(candidates, logging.Component(log, "i18n"))
	page := assets.Resolve(candidates)
	log.Info().Strs("languages", candidates).Str("page", page).Msg("Resolved interface language")

	app := desktop.NewApp(opts)

	// The tray needs the wails context, which exists only after startup.
	trayCtx := make(chan context.Context, 1)
	if !cfg.AttachMode() {
		go func() {
			tray := desktop.NewTrayManager(<-trayCtx, app)
			tray.Start()
		}()
	}

	// Extra-window processes must not trip over the primary's lock.
	var singleInstance *options.SingleInstanceLock
	if !cfg.AttachMode() {
		singleInstance = &options.SingleInstanceLock{
			UniqueId: "org.learningequality.kolibri.desktop",
			OnSecondInstanceLaunch: func(_ options.SecondInstanceData) {
				log.Info().Msg("Second launch detected, focusing existing window")
				app.ShowWindow()
			},
		}
	}

	err = wails.Run(&options.App{
		Title:     "Kolibri",
		Width:     width,
		Height:    height,
		MinWidth:  minWidth,
		MinHeight: minHeight,
		AssetServer: &assetserver.Options{
			Assets:     assets.FS,
			Middleware: assetserver.Middleware(assets.RewriteRoot(page)),
		},
		BackgroundColour:   &options.RGBA{R: 255, G: 255, B: 255, A: 1},
		SingleInstanceLock: singleInstance,
		OnStartup: func(ctx context.Context) {
			app.Startup(ctx)
			trayCtx <- ctx
		},
		OnDomReady:    app.DomReady,
		OnBeforeClose: app.BeforeClose,
		OnShutdown:    app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Menu: desktop.BuildMenu(app),
		Debug: options.Debug{
			OpenInspectorOnStartup: false,
		},
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: false,
				HideTitle:                  false,
				HideTitleBar:               false,
				FullSizeContent:            false,
				UseToolbar:                 false,
				HideToolbarSeparator:       true,
			},
			About: &mac.AboutInfo{
				Title:   "Kolibri",
				Message: "Kolibri Desktop\n© Learning Equality",
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to run application")
	}
}
