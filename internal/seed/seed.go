// Package seed loads the universe catalog from YAML and seeds the team
// registry on startup. The catalog also stays resident as read-only
// verification context: easter-egg hints and reference poster URLs per
// film feed the oracle prompts.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"party-game-bot/internal/model"
	"party-game-bot/internal/repository"
)

// Character is one of the two costume roles of a universe.
type Character struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// EasterEgg describes the hidden prop planted for a film.
type EasterEgg struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Universe is one film entry of the catalog file.
type Universe struct {
	TeamID     string      `yaml:"team_id"`
	Title      string      `yaml:"title"`
	Characters []Character `yaml:"characters"`
	PuzzleLink string      `yaml:"puzzle_link"`
	EasterEgg  EasterEgg   `yaml:"easter_egg"`
	Posters    []string    `yaml:"posters"`
}

type catalogFile struct {
	Universes []Universe `yaml:"universes"`
}

// Catalog holds the parsed universe list with a normalized-title index.
type Catalog struct {
	universes []Universe
	byTitle   map[string]Universe
}

// Load reads and parses the universe catalog. A missing or empty file
// is an error: the game cannot run without its team registry.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe catalog: %w", err)
	}
	return Parse(raw)
}

// Parse builds a Catalog from raw YAML.
func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse universe catalog: %w", err)
	}

	c := &Catalog{
		universes: file.Universes,
		byTitle:   make(map[string]Universe, len(file.Universes)),
	}
	for _, u := range file.Universes {
		if u.Title == "" {
			continue
		}
		c.byTitle[repository.NormalizeFilmTitle(u.Title)] = u
	}

	log.Info().Int("universes", len(c.universes)).Msg("Universe catalog loaded")
	return c, nil
}

// Teams extracts seedable team rows. Entries without a team_id or with
// fewer than two characters are skipped, they describe films that exist
// in the game world but have no pairing team.
func (c *Catalog) Teams() []*model.Team {
	var teams []*model.Team
	for _, u := range c.universes {
		if u.TeamID == "" || len(u.Characters) < 2 {
			continue
		}
		t := &model.Team{
			TeamID:       u.TeamID,
			FilmTitle:    u.Title,
			Character1:   u.Characters[0].Name,
			Character2:   u.Characters[1].Name,
			Character1ID: u.Characters[0].ID,
			Character2ID: u.Characters[1].ID,
		}
		if u.PuzzleLink != "" {
			link := u.PuzzleLink
			t.PuzzleLink = &link
		}
		teams = append(teams, t)
	}
	return teams
}

// Films lists every catalog title, for the film-claim help text.
func (c *Catalog) Films() []string {
	var films []string
	for _, u := range c.universes {
		if u.Title != "" {
			films = append(films, u.Title)
		}
	}
	return films
}

// Lookup finds a universe by film title, case- and whitespace-
// insensitive. Returns false when the film is not in the catalog.
func (c *Catalog) Lookup(filmTitle string) (Universe, bool) {
	u, ok := c.byTitle[repository.NormalizeFilmTitle(filmTitle)]
	return u, ok
}

// EasterEggHint renders the oracle hint for a film, empty when the
// catalog has no planted easter egg for it.
func (c *Catalog) EasterEggHint(filmTitle string) string {
	u, ok := c.Lookup(filmTitle)
	if !ok || (u.EasterEgg.Name == "" && u.EasterEgg.Description == "") {
		return ""
	}
	return fmt.Sprintf("Easter egg: %s\nDescription: %s", u.EasterEgg.Name, u.EasterEgg.Description)
}

// Posters returns the reference poster URLs for a film, nil when the
// film is unknown.
func (c *Catalog) Posters(filmTitle string) []string {
	u, ok := c.Lookup(filmTitle)
	if !ok {
		return nil
	}
	return u.Posters
}

// SeedTeams upserts every catalog team into the registry. Existing
// team_ids are left untouched, so reseeding on restart is safe.
func SeedTeams(ctx context.Context, c *Catalog, teams *repository.TeamRepository) (int, error) {
	created := 0
	for _, t := range c.Teams() {
		ok, err := teams.CreateIfAbsent(ctx, t)
		if err != nil {
			return created, fmt.Errorf("failed to seed team %s: %w", t.TeamID, err)
		}
		if ok {
			created++
			log.Debug().Str("team_id", t.TeamID).Str("film", t.FilmTitle).Msg("Team seeded")
		}
	}
	log.Info().Int("created", created).Int("total", len(c.Teams())).Msg("Team seeding completed")
	return created, nil
}
