// Package command parses player commands into tagged values and dispatches them.
package command

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Errors
var (
	ErrEmptyCommand   = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
)

// Kind identifies a command variant.
type Kind int

const (
	KindShow          Kind = iota // sh
	KindShowPlaylists             // sh -p
	KindChange                    // ch <playlist>
	KindPlay                      // pl [song]
	KindStop                      // s
	KindNext                      // n
	KindCurrent                   // c
	KindHelp                      // h
	KindAdd                       // add
	KindRemove                    // rm <song>
	KindArtists                   // ar
	KindSave                      // save
	KindLoad                      // load <path>
	KindExport                    // ex <playlist> <path>
	KindQuit                      // q
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindShow:
		return "show"
	case KindShowPlaylists:
		return "show_playlists"
	case KindChange:
		return "change"
	case KindPlay:
		return "play"
	case KindStop:
		return "stop"
	case KindNext:
		return "next"
	case KindCurrent:
		return "current"
	case KindHelp:
		return "help"
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	case KindArtists:
		return "artists"
	case KindSave:
		return "save"
	case KindLoad:
		return "load"
	case KindExport:
		return "export"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command is a parsed command with its arguments.
// Numbers are 1-based as typed by the user; 0 means "not given".
type Command struct {
	Kind    Kind
	Number  int    // playlist or song number
	Path    string // load/export file
	Name    string // add: playlist name
	Shuffle bool   // add
	Repeat  bool   // add
	Songs   []int  // add: song numbers from the library
}

// Parse turns an input line into a Command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "sh":
		if len(args) == 0 {
			return Command{Kind: KindShow}, nil
		}
		if len(args) == 1 && args[0] == "-p" {
			return Command{Kind: KindShowPlaylists}, nil
		}
		return Command{}, errors.Newf("usage: sh [-p]")
	case "ch":
		n, err := requireNumber(name, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindChange, Number: n}, nil
	case "pl":
		if len(args) == 0 {
			return Command{Kind: KindPlay}, nil
		}
		n, err := requireNumber(name, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindPlay, Number: n}, nil
	case "rm":
		n, err := requireNumber(name, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindRemove, Number: n}, nil
	case "load":
		if len(args) == 0 {
			return Command{}, errors.New("usage: load <path>")
		}
		return Command{Kind: KindLoad, Path: strings.Join(args, " ")}, nil
	case "ex":
		if len(args) < 2 {
			return Command{}, errors.New("usage: ex <playlist number> <path>")
		}
		n, err := ParseNumber(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindExport, Number: n, Path: strings.Join(args[1:], " ")}, nil
	}

	if len(args) > 0 {
		if _, known := simple[name]; known {
			return Command{}, errors.Newf("%s takes no arguments", name)
		}
		return Command{}, errors.Wrapf(ErrUnknownCommand, "%q", name)
	}
	kind, ok := simple[name]
	if !ok {
		return Command{}, errors.Wrapf(ErrUnknownCommand, "%q", name)
	}
	return Command{Kind: kind}, nil
}

var simple = map[string]Kind{
	"s":    KindStop,
	"n":    KindNext,
	"c":    KindCurrent,
	"h":    KindHelp,
	"add":  KindAdd,
	"ar":   KindArtists,
	"save": KindSave,
	"q":    KindQuit,
	"quit": KindQuit,
}

func requireNumber(name string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.Newf("usage: %s <number>", name)
	}
	return ParseNumber(args[0])
}

// ParseNumber parses a positive 1-based number.
func ParseNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, errors.Newf("invalid number %q", s)
	}
	return n, nil
}

// ParseNumbers parses a comma-separated list of positive numbers.
func ParseNumbers(s string) ([]int, error) {
	var numbers []int
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		n, err := ParseNumber(part)
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return nil, errors.New("no song numbers given")
	}
	return numbers, nil
}

// ParseYes interprets a yes/no answer. Anything containing "yes" counts as yes.
func ParseYes(answer string) bool {
	return strings.Contains(strings.ToLower(answer), "yes")
}

// Usage returns the help rows: option and description.
func Usage() [][]string {
	return [][]string{
		{"sh [-p]", "Shows all songs in the playlist. [-p] shows all playlists"},
		{"pl [song number]", "Starts a song."},
		{"s", "Stops the currently played song"},
		{"n", "Starts the next song."},
		{"c", "Current song"},
		{"ch <playlist number>", "Change the currently played playlist"},
		{"add", "Adds a new playlist"},
		{"rm <song number>", "Removes a song from the current playlist"},
		{"ar", "Shows the artists of the current playlist"},
		{"save", "Saves all playlists"},
		{"load <path>", "Loads a playlist file"},
		{"ex <playlist number> <path>", "Exports a playlist as CSV"},
		{"q", "Quit"},
	}
}
