package memory

import (
	"fmt"
	"io"
	"os"
	"time"

	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"

	"gopkg.in/yaml.v3"
)

// Seed is the fixture format for local runs with the memory driver:
//
//	stories:
//	  - id: S1
//	    title: The Sleepy Owl
//	    categories: [bedtime]
//	children:
//	  - id: C1
//	    user_id: U1
type Seed struct {
	Stories  []SeedStory `yaml:"stories"`
	Children []SeedChild `yaml:"children"`
}

// SeedStory is one catalog entry. Stories are published unless marked otherwise.
type SeedStory struct {
	ID              string    `yaml:"id"`
	Title           string    `yaml:"title"`
	AgeRange        string    `yaml:"age_range"`
	Categories      []string  `yaml:"categories"`
	Tags            []string  `yaml:"tags"`
	DurationMinutes int       `yaml:"duration_minutes"`
	ThumbnailURL    string    `yaml:"thumbnail_url"`
	Unpublished     bool      `yaml:"unpublished"`
	CreatedAt       time.Time `yaml:"created_at"`
}

// SeedChild links a child profile to its account
type SeedChild struct {
	ID     string `yaml:"id"`
	UserID string `yaml:"user_id"`
}

// LoadSeedFile reads a seed from path
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// LoadSeed decodes and checks a seed
func LoadSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}

	for _, s := range seed.Stories {
		if _, err := valueobjects.NewStoryID(s.ID); err != nil {
			return nil, fmt.Errorf("seed story %q: %w", s.ID, err)
		}
	}
	for _, c := range seed.Children {
		if _, err := valueobjects.NewChildID(c.ID); err != nil {
			return nil, fmt.Errorf("seed child %q: %w", c.ID, err)
		}
		if _, err := valueobjects.NewUserID(c.UserID); err != nil {
			return nil, fmt.Errorf("seed child %q: %w", c.ID, err)
		}
	}
	return &seed, nil
}

// Apply loads the seed into a catalog and a child directory
func (s *Seed) Apply(catalog *Catalog, children *ChildDirectory) {
	for _, st := range s.Stories {
		catalog.Put(&entities.Story{
			StoryID:         valueobjects.StoryID(st.ID),
			Title:           st.Title,
			AgeRange:        st.AgeRange,
			Categories:      st.Categories,
			Tags:            st.Tags,
			DurationMinutes: st.DurationMinutes,
			ThumbnailURL:    st.ThumbnailURL,
			Published:       !st.Unpublished,
			CreatedAt:       st.CreatedAt,
		})
	}
	for _, c := range s.Children {
		children.Put(valueobjects.ChildID(c.ID), valueobjects.UserID(c.UserID))
	}
}
