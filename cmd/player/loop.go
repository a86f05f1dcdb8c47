package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bananabox/internal/app/command"
	"github.com/osa030/bananabox/internal/app/jukebox"
)

const (
	banner = "Banana Player v42.0. Write <h> for help."
	prompt = "Tell me what to do, master..: "
)

type dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) error
}

// loop reads commands line by line until quit or end of input.
type loop struct {
	d   dispatcher
	in  *bufio.Scanner
	out io.Writer
}

func newLoop(jb *jukebox.App, in *bufio.Scanner, out io.Writer) *loop {
	return &loop{d: jb.Dispatcher(out), in: in, out: out}
}

func (l *loop) run(ctx context.Context) {
	fmt.Fprintln(l.out, banner)
	for {
		line, ok := l.ask(prompt)
		if !ok {
			fmt.Fprintln(l.out)
			return
		}

		cmd, err := command.Parse(line)
		if errors.Is(err, command.ErrEmptyCommand) {
			continue
		}
		if err != nil {
			fmt.Fprintf(l.out, "%v. Write <h> for help.\n", err)
			continue
		}
		if cmd.Kind == command.KindQuit {
			return
		}
		if cmd.Kind == command.KindAdd {
			if !l.fillAdd(&cmd) {
				return
			}
		}

		if err := l.d.Dispatch(ctx, cmd); err != nil {
			zlog.Debug().Msgf("command %s failed: %v", cmd.Kind, err)
			fmt.Fprintf(l.out, "Error: %v\n", err)
		}
	}
}

// fillAdd asks for the new playlist's name, modes and songs.
// It returns false when the input ends.
func (l *loop) fillAdd(cmd *command.Command) bool {
	name, ok := l.ask("Name of the playlist: ")
	if !ok {
		return false
	}
	shuffle, ok := l.ask("Shuffle? Yes/No: ")
	if !ok {
		return false
	}
	repeat, ok := l.ask("Repeat? Yes/No: ")
	if !ok {
		return false
	}

	cmd.Name = strings.TrimSpace(name)
	cmd.Shuffle = command.ParseYes(shuffle)
	cmd.Repeat = command.ParseYes(repeat)

	for {
		answer, ok := l.ask("Song numbers from the library with ',' between them: ")
		if !ok {
			return false
		}
		songs, err := command.ParseNumbers(answer)
		if err == nil {
			cmd.Songs = songs
			return true
		}
		fmt.Fprintf(l.out, "%v. Try again.\n", err)
	}
}

func (l *loop) ask(question string) (string, bool) {
	fmt.Fprint(l.out, question)
	if !l.in.Scan() {
		return "", false
	}
	return l.in.Text(), true
}
