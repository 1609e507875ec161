package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptionRouting(t *testing.T) {
	tests := []struct {
		caption   string
		film      bool
		puzzle    bool
		filmTitle string
	}{
		{caption: "", film: false, puzzle: false},
		{caption: "great party!", film: false, puzzle: false},
		{caption: "Film: Back to the Future", film: true, filmTitle: "Back to the Future"},
		{caption: "film: alien", film: true, filmTitle: "alien"},
		{caption: "FILM:  Dune ", film: true, filmTitle: "Dune"},
		{caption: "/film The Matrix", film: true, filmTitle: "The Matrix"},
		{caption: "Film:", film: true, filmTitle: ""},
		{caption: "Puzzle", puzzle: true},
		{caption: "puzzle!", puzzle: true},
		{caption: "/puzzle", puzzle: true},
		{caption: "puzzled about this", film: false, puzzle: false},
		{caption: "Team: 123456", film: false, puzzle: false},
	}

	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			assert.Equal(t, tt.film, isFilmCaption(tt.caption))
			assert.Equal(t, tt.puzzle, isPuzzleCaption(tt.caption))
			if tt.film {
				assert.Equal(t, tt.filmTitle, filmTitleFromCaption(tt.caption))
			}
		})
	}
}
