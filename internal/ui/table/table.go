// Package table renders playlists and tracks as terminal tables.
package table

import (
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/osa030/bananabox/internal/domain/playlist"
	"github.com/osa030/bananabox/internal/domain/track"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Render draws a bordered table.
func Render(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(true).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}

// Tracks renders a playlist's songs with 1-based numbers.
func Tracks(p *playlist.Playlist) string {
	tracks := p.Tracks()
	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		rows[i] = []string{strconv.Itoa(i + 1), t.Artist, t.Title, track.FormatDuration(t.Duration)}
	}
	return Render([]string{"Number", "Artist", "Song", "Length"}, rows)
}

// Playlists renders the playlist overview.
func Playlists(playlists []*playlist.Playlist) string {
	rows := make([][]string, len(playlists))
	for i, p := range playlists {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			p.Name,
			track.FormatDuration(p.TotalDuration()),
			strconv.FormatBool(p.Shuffle),
			strconv.FormatBool(p.Repeat),
		}
	}
	return Render([]string{"Number", "Name", "Length", "Shuffle", "Repeat"}, rows)
}

// Song renders a single track.
func Song(t *track.Track) string {
	return Render(
		[]string{"Artist", "Song", "Length"},
		[][]string{{t.Artist, t.Title, track.FormatDuration(t.Duration)}},
	)
}

// Artists renders an artist histogram, most tracks first.
func Artists(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, strconv.Itoa(counts[name])}
	}
	return Render([]string{"Artist", "Songs"}, rows)
}

// Usage renders two-column help rows.
func Usage(rows [][]string) string {
	return Render([]string{"Option", "What it does"}, rows)
}
