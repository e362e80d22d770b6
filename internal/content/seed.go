package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk shape of a content seed document.
type seedFile struct {
	Topics  []Topic `yaml:"topics"`
	Courses []Course `yaml:"courses"`
	Paths   []struct {
		ID          string   `yaml:"id"`
		Title       string   `yaml:"title"`
		Description string   `yaml:"description"`
		Courses     []string `yaml:"courses"`
		Topics      []string `yaml:"topics"`
		Status      string   `yaml:"status"`
	} `yaml:"paths"`
}

var titleCaser = cases.Title(language.English)

// Seed loads every *.yaml / *.yml file under rootDir into the store.
// Used to bootstrap a fresh deployment with the admin-authored content
// graph. Existing ids are overwritten.
func Seed(store Store, rootDir string) error {
	loaded := 0
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		if err := seedOne(store, path); err != nil {
			return err
		}
		loaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("seeding content: %w", err)
	}
	slog.Info("content seeded", "dir", rootDir, "files", loaded)
	return nil
}

func seedOne(store Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, t := range doc.Topics {
		t.Title = normalizeTitle(t.Title)
		if existing, err := store.GetTopic(t.ID); err == nil {
			t.CreatedAt = existing.CreatedAt
			if err := store.UpdateTopic(t); err != nil {
				return fmt.Errorf("seeding topic %s: %w", t.ID, err)
			}
			continue
		}
		if _, err := store.CreateTopic(t); err != nil {
			return fmt.Errorf("seeding topic %s: %w", t.ID, err)
		}
	}
	for _, c := range doc.Courses {
		c.Title = normalizeTitle(c.Title)
		if _, err := store.GetCourse(c.ID); err == nil {
			if err := store.UpdateCourse(c); err != nil {
				return fmt.Errorf("seeding course %s: %w", c.ID, err)
			}
			continue
		}
		if _, err := store.CreateCourse(c); err != nil {
			return fmt.Errorf("seeding course %s: %w", c.ID, err)
		}
	}
	for _, raw := range doc.Paths {
		p := LearningPath{
			ID:          raw.ID,
			Title:       normalizeTitle(raw.Title),
			Description: raw.Description,
			Courses:     raw.Courses,
			Topics:      RefsFromIDs(raw.Topics),
			Status:      raw.Status,
		}
		if _, err := store.GetPath(p.ID); err == nil {
			if err := store.UpdatePath(p); err != nil {
				return fmt.Errorf("seeding path %s: %w", p.ID, err)
			}
			continue
		}
		if _, err := store.CreatePath(p); err != nil {
			return fmt.Errorf("seeding path %s: %w", p.ID, err)
		}
	}
	return nil
}

// normalizeTitle title-cases seed titles that were written entirely in
// lower case. Mixed-case titles (acronyms like "HTML & CSS Basics") are
// left untouched.
func normalizeTitle(s string) string {
	if s == strings.ToLower(s) {
		return titleCaser.String(s)
	}
	return s
}
