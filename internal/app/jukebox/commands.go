package jukebox

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/osa030/bananabox/internal/app/command"
	"github.com/osa030/bananabox/internal/app/playback"
	"github.com/osa030/bananabox/internal/ui/table"
)

// Dispatcher returns a command dispatcher bound to the app.
// Handlers write their tables and messages to out. Quit is left to the caller.
func (a *App) Dispatcher(out io.Writer) *command.Dispatcher {
	h := &handlers{app: a, out: out}

	d := command.NewDispatcher()
	d.Register(command.KindShow, h.show)
	d.Register(command.KindShowPlaylists, h.showPlaylists)
	d.Register(command.KindChange, h.change)
	d.Register(command.KindPlay, h.play)
	d.Register(command.KindStop, h.stop)
	d.Register(command.KindNext, h.next)
	d.Register(command.KindCurrent, h.current)
	d.Register(command.KindHelp, h.help)
	d.Register(command.KindAdd, h.add)
	d.Register(command.KindRemove, h.remove)
	d.Register(command.KindArtists, h.artists)
	d.Register(command.KindSave, h.save)
	d.Register(command.KindLoad, h.load)
	d.Register(command.KindExport, h.export)
	return d
}

type handlers struct {
	app *App
	out io.Writer
}

func (h *handlers) println(s string) {
	fmt.Fprintln(h.out, s)
}

func (h *handlers) show(ctx context.Context, cmd command.Command) error {
	p, err := h.app.CurrentPlaylist()
	if err != nil {
		return err
	}
	h.println(table.Tracks(p))
	return nil
}

func (h *handlers) showPlaylists(ctx context.Context, cmd command.Command) error {
	h.println(table.Playlists(h.app.Playlists()))
	return nil
}

func (h *handlers) change(ctx context.Context, cmd command.Command) error {
	p, err := h.app.Change(ctx, cmd.Number)
	if err != nil {
		return err
	}
	h.println(fmt.Sprintf("Now playing from: %s", p.Name))
	return nil
}

func (h *handlers) play(ctx context.Context, cmd command.Command) error {
	t, err := h.app.Play(ctx, cmd.Number)
	if err != nil {
		return err
	}
	h.println(table.Song(t))
	return nil
}

func (h *handlers) stop(ctx context.Context, cmd command.Command) error {
	err := h.app.Stop(ctx)
	if errors.Is(err, playback.ErrNotPlaying) {
		h.println("Nothing is playing.")
		return nil
	}
	return err
}

func (h *handlers) next(ctx context.Context, cmd command.Command) error {
	res, err := h.app.Next(ctx)
	if res.Ended {
		h.println("End of playlist!")
	}
	if err != nil {
		return err
	}
	if !res.Ended {
		h.println(table.Song(res.Track))
	}
	return nil
}

func (h *handlers) current(ctx context.Context, cmd command.Command) error {
	t, state := h.app.Current()
	if t == nil {
		h.println("No song selected.")
		return nil
	}
	h.println(table.Song(t))
	h.println(fmt.Sprintf("State: %s", state))
	return nil
}

func (h *handlers) help(ctx context.Context, cmd command.Command) error {
	h.println(table.Usage(command.Usage()))
	return nil
}

func (h *handlers) add(ctx context.Context, cmd command.Command) error {
	if cmd.Shuffle && cmd.Repeat {
		h.println("You can't have both shuffle and repeat on, shuffle wins.")
	}
	if _, err := h.app.AddPlaylist(cmd.Name, cmd.Shuffle, cmd.Repeat, cmd.Songs); err != nil {
		return err
	}
	h.println("All done!")
	return nil
}

func (h *handlers) remove(ctx context.Context, cmd command.Command) error {
	t, err := h.app.RemoveSong(cmd.Number)
	if err != nil {
		return err
	}
	h.println(fmt.Sprintf("Removed: %s", t))
	return nil
}

func (h *handlers) artists(ctx context.Context, cmd command.Command) error {
	counts, err := h.app.Artists()
	if err != nil {
		return err
	}
	h.println(table.Artists(counts))
	return nil
}

func (h *handlers) save(ctx context.Context, cmd command.Command) error {
	n, err := h.app.SavePlaylists()
	if err != nil {
		return err
	}
	h.println(fmt.Sprintf("Saved %d playlists.", n))
	return nil
}

func (h *handlers) load(ctx context.Context, cmd command.Command) error {
	p, err := h.app.LoadPlaylist(cmd.Path)
	if err != nil {
		return err
	}
	h.println(fmt.Sprintf("Loaded %q with %d songs.", p.Name, p.Len()))
	return nil
}

func (h *handlers) export(ctx context.Context, cmd command.Command) error {
	p, err := h.app.ExportPlaylist(cmd.Number, cmd.Path)
	if err != nil {
		return err
	}
	h.println(fmt.Sprintf("Exported %q to %s.", p.Name, cmd.Path))
	return nil
}
