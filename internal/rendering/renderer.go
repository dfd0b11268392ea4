// Package rendering plugs gomponents into echo's c.Render.
package rendering

import (
	"bytes"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"
)

// Renderer implements echo.Renderer for gomponents nodes. The template name
// is ignored; the node is passed as data.
type Renderer struct{}

// NewRenderer creates a new Renderer instance.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render implements the echo.Renderer interface for use with c.Render(status, name, node).
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	node, ok := data.(g.Node)
	if !ok {
		return fmt.Errorf("unsupported component type: %T", data)
	}
	return node.Render(w)
}

// RenderComponent renders a node to a slice of bytes.
func RenderComponent(node g.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render component to bytes: %w", err)
	}
	return buf.Bytes(), nil
}
