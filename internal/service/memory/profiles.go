package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandevgo/recall/internal/core"
)

const profileTemplate = `# %s

- Type: %s
- Created: %s

## Summary

%s

## Facts

## Metadata

%s
`

// Profiles manages long-form entity profile documents alongside the entity
// rows. One markdown file per entity, grouped by type.
type Profiles struct {
	dir      string
	entities core.EntityRepository
	facts    core.FactRepository
}

func NewProfiles(dir string, entities core.EntityRepository, facts core.FactRepository) *Profiles {
	return &Profiles{dir: dir, entities: entities, facts: facts}
}

// Create makes the entity row and its profile document. Returns false with
// no error when a profile for that (name, type) already exists.
func (p *Profiles) Create(ctx context.Context, name string, typ core.EntityType, summary, metadata string) (bool, error) {
	if name == "" {
		return false, &core.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if typ == "" {
		typ = InferEntityType(name)
	}

	path := p.path(name, typ)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	id, _, err := p.entities.Create(ctx, core.Entity{
		Name:     name,
		Type:     typ,
		Summary:  summary,
		Metadata: metadata,
	})
	if err != nil {
		return false, err
	}
	if summary != "" {
		if err := p.entities.UpdateSummary(ctx, id, summary); err != nil {
			return false, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("create profile dir: %w", err)
	}

	if summary == "" {
		summary = "(none yet)"
	}
	if metadata == "" {
		metadata = "{}"
	}
	doc := fmt.Sprintf(profileTemplate, name, typ, time.Now().UTC().Format("2006-01-02"), summary, metadata)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return false, fmt.Errorf("write profile: %w", err)
	}
	return true, nil
}

// Get returns the profile document for the entity with this name.
func (p *Profiles) Get(ctx context.Context, name string) (string, error) {
	entity, err := p.entities.GetByName(ctx, name)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(p.path(entity.Name, entity.Type))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("profile for %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read profile: %w", err)
	}
	return string(data), nil
}

// UpdateSummary rewrites the entity summary on both the row and document.
func (p *Profiles) UpdateSummary(ctx context.Context, name, summary string) error {
	entity, err := p.entities.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if err := p.entities.UpdateSummary(ctx, entity.ID, summary); err != nil {
		return err
	}
	return p.appendSection(entity, fmt.Sprintf("- [%s] summary updated: %s",
		time.Now().UTC().Format("2006-01-02 15:04"), summary))
}

// AppendFact appends a timestamped line to the profile's facts section.
// No-ops when the entity has no profile document.
func (p *Profiles) AppendFact(ctx context.Context, name, factText string) error {
	entity, err := p.entities.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return err
	}
	return p.appendSection(entity, fmt.Sprintf("- [%s] %s",
		time.Now().UTC().Format("2006-01-02 15:04"), factText))
}

func (p *Profiles) appendSection(entity core.Entity, line string) error {
	path := p.path(entity.Name, entity.Type)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}

	doc := string(data)
	marker := "\n## Facts\n"
	idx := strings.Index(doc, marker)
	if idx == -1 {
		doc += marker + line + "\n"
	} else {
		insert := idx + len(marker)
		doc = doc[:insert] + line + "\n" + doc[insert:]
	}
	return os.WriteFile(path, []byte(doc), 0644)
}

// List proxies entity listing for the profile API.
func (p *Profiles) List(ctx context.Context, typ core.EntityType, limit int) ([]core.Entity, error) {
	return p.entities.List(ctx, typ, limit)
}

// FactsFor returns facts mentioning the entity, most recent first.
func (p *Profiles) FactsFor(ctx context.Context, name string, k int) ([]core.SearchResult, error) {
	return p.facts.SearchByEntity(ctx, name, k, core.FilterAll)
}

func (p *Profiles) path(name string, typ core.EntityType) string {
	return filepath.Join(p.dir, string(typ), sanitizeName(name)+".md")
}

// sanitizeName keeps profile filenames filesystem-safe.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
