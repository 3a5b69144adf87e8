// Package salesimport turns pasted delivery-platform statements into
// per-SKU sales records.
package salesimport

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

// Line is one parsed statement row before catalogue matching. Quantity is
// plates or items as the platform bills them, not pieces.
type Line struct {
	Name     string `json:"name" jsonschema:"description=Menu item name exactly as written in the statement"`
	Quantity int    `json:"quantity" jsonschema:"description=Number of plates or items sold"`
}

type Result struct {
	Lines   []Line
	Skipped []string
}

type Parser interface {
	Name() string
	Parse(ctx context.Context, platform domain.Platform, text string, catalogue Catalogue) (Result, error)
}

// TextParser reads "<name or sku> <qty>" lines. A trailing or leading
// "x" on the quantity ("x12", "12x") is accepted.
type TextParser struct{}

func (TextParser) Name() string { return "text" }

func (TextParser) Parse(_ context.Context, _ domain.Platform, text string, _ Catalogue) (Result, error) {
	var out Result
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return unicode.IsSpace(r) || r == ',' || r == ':' || r == '\t'
		})
		if len(fields) < 2 {
			out.Skipped = append(out.Skipped, line)
			continue
		}

		qty, ok := parseQuantity(fields[len(fields)-1])
		if !ok {
			out.Skipped = append(out.Skipped, line)
			continue
		}
		out.Lines = append(out.Lines, Line{
			Name:     strings.Join(fields[:len(fields)-1], " "),
			Quantity: qty,
		})
	}
	return out, nil
}

func parseQuantity(token string) (int, bool) {
	token = strings.TrimSpace(strings.ToLower(token))
	token = strings.TrimPrefix(token, "x")
	token = strings.TrimSuffix(token, "x")
	qty, err := strconv.Atoi(token)
	if err != nil || qty < 0 {
		return 0, false
	}
	return qty, true
}
