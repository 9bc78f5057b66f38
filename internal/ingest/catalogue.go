// Package ingest turns a tour catalogue into embedded knowledge rows.
package ingest

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"tour_guide_rag/internal/vectorstore"

	"gopkg.in/yaml.v3"
)

// spotMinRunes is the length a spot document must exceed to be embedded.
const spotMinRunes = 50

// Catalogue is the sync input. JSON is accepted as well since it parses as YAML.
type Catalogue struct {
	Tours []Tour `yaml:"tours" json:"tours"`
}

type Tour struct {
	ID          int64  `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Spots       []Spot `yaml:"spots" json:"spots"`
}

type Spot struct {
	ID          int64       `yaml:"id" json:"id"`
	Title       string      `yaml:"title" json:"title"`
	Description string      `yaml:"description" json:"description"`
	GuideLines  []GuideLine `yaml:"guideLines" json:"guideLines"`
}

// GuideLine is one scripted line of a spot's Korean guide step.
type GuideLine struct {
	ID   int64  `yaml:"id" json:"id"`
	Text string `yaml:"text" json:"text"`
}

func ParseCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	return &c, nil
}

func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	return ParseCatalogue(data)
}

// Find returns the tour with id, or nil.
func (c *Catalogue) Find(id int64) *Tour {
	for i := range c.Tours {
		if c.Tours[i].ID == id {
			return &c.Tours[i]
		}
	}
	return nil
}

// Documents lists the knowledge documents of a tour, without embeddings:
// the tour itself when it has a description, each spot whose text is long
// enough, and every non-blank guide line prefixed with its spot title.
func Documents(t Tour) []vectorstore.Document {
	var docs []vectorstore.Document

	if strings.TrimSpace(t.Description) != "" {
		docs = append(docs, vectorstore.Document{
			SourceType: vectorstore.SourceTour,
			SourceID:   t.ID,
			TourID:     t.ID,
			Title:      t.Title,
			Content:    "투어: " + t.Title + "\n" + t.Description,
		})
	}

	for _, s := range t.Spots {
		content := "스팟: " + s.Title
		if strings.TrimSpace(s.Description) != "" {
			content += "\n" + s.Description
		}
		if utf8.RuneCountInString(content) > spotMinRunes {
			docs = append(docs, vectorstore.Document{
				SourceType: vectorstore.SourceSpot,
				SourceID:   s.ID,
				TourID:     t.ID,
				SpotID:     s.ID,
				Title:      s.Title,
				Content:    content,
			})
		}

		for _, line := range s.GuideLines {
			if strings.TrimSpace(line.Text) == "" {
				continue
			}
			docs = append(docs, vectorstore.Document{
				SourceType: vectorstore.SourceGuideLine,
				SourceID:   line.ID,
				TourID:     t.ID,
				SpotID:     s.ID,
				Title:      s.Title,
				Content:    "[" + s.Title + "] " + line.Text,
			})
		}
	}
	return docs
}
