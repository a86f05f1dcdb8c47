package process

import (
	"context"
	"os/exec"
	"slices"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// Settings configures a command-line player.
type Settings struct {
	Command string   `yaml:"command" mapstructure:"command" validate:"required"`
	Args    []string `yaml:"args" mapstructure:"args"`
}

// Backend launches a specific player program.
type Backend struct {
	name     string
	settings Settings
}

// backendDefaults holds the built-in players and the flags that make them
// play a single file quietly and exit.
var backendDefaults = map[string]Settings{
	"mpg123":  {Command: "mpg123", Args: []string{"-q"}},
	"mpv":     {Command: "mpv", Args: []string{"--no-video", "--really-quiet"}},
	"ffplay":  {Command: "ffplay", Args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	"command": {},
}

// Names returns the supported backend names.
func Names() []string {
	names := make([]string, 0, len(backendDefaults))
	for name := range backendDefaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBackend creates a backend by name. Settings override the built-in
// command and arguments; the "command" backend requires them.
func NewBackend(name string, settings map[string]any) (*Backend, error) {
	base, ok := backendDefaults[name]
	if !ok {
		return nil, errors.Newf("unsupported player backend: %s", name)
	}

	config := Settings{Command: base.Command, Args: slices.Clone(base.Args)}

	// Decode map[string]any to struct using mapstructure
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &config,
		TagName:    "mapstructure",
		ZeroFields: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrapf(err, "invalid settings for backend %s", name)
	}

	zlog.Debug().Msgf("player backend config: name=%s %+v", name, config)
	return &Backend{name: name, settings: config}, nil
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return b.name
}

// Command returns the program and arguments used to play path.
func (b *Backend) Command(path string) (string, []string) {
	args := append(slices.Clone(b.settings.Args), path)
	return b.settings.Command, args
}

// Available reports whether the player program can be found.
func (b *Backend) Available() bool {
	_, err := exec.LookPath(b.settings.Command)
	return err == nil
}

// Launch starts playing path. The context is only checked before spawning;
// the process outlives it and must be stopped explicitly.
func (b *Backend) Launch(ctx context.Context, path string) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, args := b.Command(path)
	return start(name, args...)
}
