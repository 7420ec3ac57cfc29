package main

import (
	"embed"
	"log"

	"sidedock/internal/app"
	"sidedock/internal/config"
	"sidedock/internal/infrastructure/logging"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	level := logging.ParseLevel(cfg.LogLevel)
	appLogger := logging.NewLeveledLogger(level)
	application := app.NewApp(cfg, appLogger)

	// The window is resized to cover the current screen in Startup; input
	// outside the panel falls through to the desktop.
	err = wails.Run(&options.App{
		Title:             app.WindowTitle,
		Width:             1280,
		Height:            800,
		DisableResize:     true,
		Fullscreen:        false,
		Frameless:         true,
		StartHidden:       false,
		HideWindowOnClose: false,
		AlwaysOnTop:       true,
		BackgroundColour:  &options.RGBA{R: 0, G: 0, B: 0, A: 0},
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Menu:             nil,
		Logger:           logging.NewWailsLoggerAdapter(appLogger),
		LogLevel:         wailsLogLevel(level),
		OnStartup:        application.Startup,
		OnDomReady:       application.DomReady,
		OnBeforeClose:    application.BeforeClose,
		OnShutdown:       application.Shutdown,
		WindowStartState: options.Normal,
		Bind: []interface{}{
			application,
		},
		Windows: &windows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
			DisableWindowIcon:    true,
			WebviewUserDataPath:  "",
			ZoomFactor:           1.0,
			BackdropType:         windows.None,
		},
		Mac: &mac.Options{
			TitleBar:             mac.TitleBarHidden(),
			Appearance:           mac.NSAppearanceNameDarkAqua,
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
		},
	})

	if err != nil {
		appLogger.Error("Application exited with error", "error", err)
		log.Fatal(err)
	}
}

func wailsLogLevel(level logging.Level) logger.LogLevel {
	switch level {
	case logging.LevelDebug:
		return logger.DEBUG
	case logging.LevelWarn:
		return logger.WARNING
	case logging.LevelError:
		return logger.ERROR
	default:
		return logger.INFO
	}
}
