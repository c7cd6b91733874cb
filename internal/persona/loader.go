package persona

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/specsprite/internal/session"
)

const fileSuffix = "-expert.md"

// Loader reads persona files named "<type>-expert.md" anywhere below a
// directory. An empty directory means only built-in personas are used.
type Loader struct {
	dir string

	mu      sync.Mutex
	paths   map[string]string
	scanned bool
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Discover returns the persona files found below the directory, keyed by
// project type. When two files share a type the first in glob order wins.
func (l *Loader) Discover() (map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scanned {
		return l.paths, nil
	}
	paths, err := l.discover()
	if err != nil {
		return nil, err
	}
	l.paths = paths
	l.scanned = true
	return paths, nil
}

func (l *Loader) discover() (map[string]string, error) {
	out := make(map[string]string)
	if l.dir == "" {
		return out, nil
	}
	matches, err := doublestar.Glob(os.DirFS(l.dir), "**/*"+fileSuffix)
	if err != nil {
		return nil, fmt.Errorf("scanning persona directory %s: %w", l.dir, err)
	}
	for _, m := range matches {
		pt := strings.TrimSuffix(path.Base(m), fileSuffix)
		if _, dup := out[pt]; !dup {
			out[pt] = m
		}
	}
	return out, nil
}

// Load reads and parses the persona for a project type. It returns an error
// when the file is missing or malformed; callers fall back to Default.
func (l *Loader) Load(pt session.ProjectType) (*Persona, error) {
	pt = pt.OrGeneric()
	paths, err := l.Discover()
	if err != nil {
		return nil, err
	}
	rel, ok := paths[string(pt)]
	if !ok {
		return nil, fmt.Errorf("no persona file for %s", pt)
	}
	data, err := os.ReadFile(filepath.Join(l.dir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("reading persona %s: %w", rel, err)
	}
	p, err := Parse(data, pt)
	if err != nil {
		return nil, fmt.Errorf("parsing persona %s: %w", rel, err)
	}
	return p, nil
}

// SystemPrompt returns the contents of "system/<name>.md" below the
// directory, or fallback when the file cannot be read.
func (l *Loader) SystemPrompt(name, fallback string) string {
	if l.dir == "" {
		return fallback
	}
	data, err := os.ReadFile(filepath.Join(l.dir, "system", name+".md"))
	if err != nil {
		return fallback
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return fallback
}

// Registry holds one persona per project type, loaded once at start-up.
type Registry struct {
	personas map[session.ProjectType]*Persona
}

// LoadRegistry loads a persona for every project type. A type whose file is
// missing or malformed gets its built-in persona.
func LoadRegistry(l *Loader) *Registry {
	r := &Registry{personas: make(map[session.ProjectType]*Persona, len(session.ProjectTypes))}
	paths, err := l.Discover()
	if err != nil {
		log.Printf("persona: WARNING: %v; using built-in personas", err)
	}
	for _, pt := range session.ProjectTypes {
		if _, ok := paths[string(pt)]; !ok {
			r.personas[pt] = Default(pt)
			continue
		}
		p, err := l.Load(pt)
		if err != nil {
			log.Printf("persona: WARNING: %v; using built-in persona", err)
			p = Default(pt)
		}
		r.personas[pt] = p
	}
	return r
}

// For returns the persona for a project type, falling back to the generic
// persona.
func (r *Registry) For(pt session.ProjectType) *Persona {
	if p, ok := r.personas[pt]; ok {
		return p
	}
	if p, ok := r.personas[session.ProjectGeneric]; ok {
		return p
	}
	return Default(session.ProjectGeneric)
}
