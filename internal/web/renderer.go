// Package web renders the portal's HTML pages from embedded pongo2
// templates.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.pongo2
var templateFS embed.FS

// Page template names.
const (
	PageAuth   = "auth.pongo2"
	PageSearch = "search.pongo2"
	PageAgency = "agency.pongo2"
	PageError  = "error.pongo2"
)

// fsLoader resolves template names against an fs.FS. Names are always
// relative to the template root.
type fsLoader struct {
	fsys fs.FS
}

func (l fsLoader) Abs(_, name string) string {
	return path.Clean(strings.TrimPrefix(name, "/"))
}

func (l fsLoader) Get(name string) (io.Reader, error) {
	b, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// Engine implements fiber.Views over a pongo2 template set.
type Engine struct {
	set  *pongo2.TemplateSet
	fsys fs.FS
}

var _ fiber.Views = (*Engine)(nil)

// NewEngine builds an engine over the embedded templates. In debug mode
// templates are re-parsed on every render.
func NewEngine(debug bool) *Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	set := pongo2.NewSet("portal", fsLoader{fsys: sub})
	set.Debug = debug
	return &Engine{set: set, fsys: sub}
}

// Load parses every template so syntax errors surface at startup.
func (e *Engine) Load() error {
	names, err := fs.Glob(e.fsys, "*.pongo2")
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := e.set.FromCache(name); err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
	}
	return nil
}

// Render executes the named template. Layouts are expressed with pongo2's
// extends tag, so the layout arguments are ignored.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	tpl, err := e.set.FromCache(name)
	if err != nil {
		return err
	}
	return tpl.ExecuteWriter(contextOf(binding), w)
}

func contextOf(binding interface{}) pongo2.Context {
	switch b := binding.(type) {
	case pongo2.Context:
		return b
	case fiber.Map:
		return pongo2.Context(b)
	case map[string]interface{}:
		return pongo2.Context(b)
	case nil:
		return pongo2.Context{}
	default:
		return pongo2.Context{"data": b}
	}
}
