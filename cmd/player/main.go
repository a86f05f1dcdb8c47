// Package main provides the player entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bananabox/internal/app/jukebox"
	"github.com/osa030/bananabox/internal/app/library"
	"github.com/osa030/bananabox/internal/app/playback"
	"github.com/osa030/bananabox/internal/domain/playlist"
	"github.com/osa030/bananabox/internal/infra/config"
	"github.com/osa030/bananabox/internal/infra/logger"
	"github.com/osa030/bananabox/internal/infra/process"
	"github.com/osa030/bananabox/internal/infra/store"
	"github.com/osa030/bananabox/internal/infra/tags"
	"github.com/osa030/bananabox/internal/ui/table"
)

const shutdownTimeout = 10 * time.Second

var (
	app        = kingpin.New("bananabox", "Command line MP3 player")
	configPath = app.Flag("config", "Path to config file").Default(config.DefaultPath()).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// scan command
	scanCmd = app.Command("scan", "Scan the library and print it")

	// init command
	initCmd   = app.Command("init", "Write a config file for the given music directories")
	initPaths = initCmd.Arg("paths", "Directories where your music is stored").Required().Strings()
	initForce = initCmd.Flag("force", "Overwrite an existing config file").Bool()
)

func init() {
	// run command (default)
	app.Command("run", "Start the interactive player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Level: "warn",
		File:  *logfile,
	}
	if *logfile != "" {
		loggerConfig.Level = "info"
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	var err error
	switch command {
	case initCmd.FullCommand():
		err = initConfig(*configPath, *initPaths, *initForce)
	case scanCmd.FullCommand():
		err = scan(*configPath)
	default:
		err = run(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		zlog.Error().Msgf("exiting: %v", err)
		os.Exit(1)
	}
}

func initConfig(path string, paths []string, force bool) error {
	if config.Exists(path) && !force {
		return errors.Newf("config file %s already exists, use --force to overwrite", path)
	}
	cfg, err := config.New(paths)
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("Config written to %s\n", path)
	return nil
}

func scan(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	result, err := library.NewScanner(tags.NewReader()).Scan(context.Background(), cfg.Library.Paths...)
	if err != nil {
		return err
	}

	lib := playlist.New(jukebox.LibraryName, false, false)
	lib.AddAll(result.Tracks...)
	fmt.Println(table.Tracks(lib))
	for _, f := range result.Failures {
		fmt.Printf("Skipped %s: %v\n", f.Path, f.Err)
	}
	return nil
}

// loadOrCreateConfig loads the config, asking for the library paths on first run.
func loadOrCreateConfig(path string, in *bufio.Scanner) (*config.Config, error) {
	if config.Exists(path) {
		zlog.Info().Msgf("Loading config from %s", path)
		return config.Load(path)
	}

	fmt.Print("Please write all the paths where your music is stored with ',' between them: ")
	if !in.Scan() {
		return nil, errors.New("no music paths given")
	}
	cfg, err := config.New(config.ParsePaths(in.Text()))
	if err != nil {
		return nil, err
	}
	if err := config.Save(path, cfg); err != nil {
		return nil, err
	}
	zlog.Info().Msgf("Config written to %s", path)
	return cfg, nil
}

// run executes the interactive player. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(path string) error {
	in := bufio.NewScanner(os.Stdin)

	cfg, err := loadOrCreateConfig(path, in)
	if err != nil {
		return err
	}

	backend, err := process.NewBackend(cfg.Player.Backend, cfg.Player.Settings)
	if err != nil {
		return errors.Wrap(err, "invalid player config")
	}
	if !backend.Available() {
		zlog.Warn().Msgf("player command for backend %s not found in PATH", backend.Name())
	}

	controller := playback.NewController(playback.LauncherFunc(func(ctx context.Context, path string) (playback.Process, error) {
		proc, err := backend.Launch(ctx, path)
		if err != nil {
			return nil, err
		}
		return proc, nil
	}), playback.Config{})

	jb := jukebox.New(
		library.NewScanner(tags.NewReader()),
		store.NewDir(cfg.Playlists.Dir),
		controller,
		jukebox.Options{
			LibraryPaths: cfg.Library.Paths,
			AutoSave:     cfg.AutoSaveEnabled(),
		},
	)

	ctx := context.Background()
	if err := jb.Load(ctx); err != nil {
		return err
	}
	for _, f := range jb.Failures() {
		zlog.Warn().Msgf("skipped %s: %v", f.Path, f.Err)
	}

	// Stop the player process and save playlists on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		zlog.Info().Msgf("Received signal %s, shutting down...", sig)
		shutdown(jb)
		os.Exit(0)
	}()

	newLoop(jb, in, os.Stdout).run(ctx)

	shutdown(jb)
	return nil
}

func shutdown(jb *jukebox.App) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := jb.Close(ctx); err != nil {
		zlog.Error().Msgf("Failed to close player: %v", err)
	}
}
