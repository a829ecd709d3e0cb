package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format selects an output renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts text, json, markdown and the alias md. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or markdown)", s)
	}
}

// Render writes blocks to w in the given format.
func Render(w io.Writer, blocks []Block, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if blocks == nil {
			blocks = []Block{}
		}
		return enc.Encode(blocks)
	case FormatMarkdown:
		return renderMarkdown(w, blocks)
	case FormatText, "":
		return renderText(w, blocks)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

func renderText(w io.Writer, blocks []Block) error {
	for _, b := range blocks {
		head := fmt.Sprintf("[%d] <%s>", b.Index, b.Tag)
		if b.Source != "" {
			head += " from " + b.Source
		}
		if b.Selector != "" {
			head += " " + b.Selector
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", head, b.Text); err != nil {
			return err
		}
	}
	return nil
}

func renderMarkdown(w io.Writer, blocks []Block) error {
	var sb strings.Builder
	sb.WriteString("# Readable blocks\n\n")
	for _, b := range blocks {
		sb.WriteString(fmt.Sprintf("## %d. `%s`", b.Index, b.Tag))
		if b.Selector != "" {
			sb.WriteString(fmt.Sprintf(" (`%s`)", b.Selector))
		}
		sb.WriteString("\n\n")
		if b.Text != "" {
			sb.WriteString(b.Text)
			sb.WriteString("\n\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
