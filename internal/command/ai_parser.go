package command

import (
	"context"
	"fmt"

	"cmdbar/internal/logging"
	"cmdbar/internal/perception"
	"cmdbar/internal/routing"
	"cmdbar/internal/view"
)

// Translator turns a natural-language query into filters and command lines.
type Translator interface {
	Translate(ctx context.Context, query string, vctx *view.Context) (perception.Translation, error)
}

// AIParser builds a composite command from a translation. Generated command
// lines go through the grammar only, so they can never reach the
// translator again.
type AIParser struct {
	translator Translator
}

// NewAIParser creates an AI parser over translator.
func NewAIParser(translator Translator) *AIParser {
	return &AIParser{translator: translator}
}

// Parse translates query in vctx and returns the resulting composite. When
// the translation carries a filter, the composite starts with a switch to
// the filtered list and its children act on that list's items.
func (p *AIParser) Parse(ctx context.Context, query string, vctx *view.Context) (*Composite, error) {
	translation, err := p.translator.Translate(ctx, query, vctx)
	if err != nil {
		return nil, fmt.Errorf("ai parse: %w", err)
	}

	target := vctx
	composite := &Composite{TitleText: query}

	if filter, ok := translation.Resolve(vctx); ok {
		composite.ContextURL = routing.ItemsPath(filter)
		target = vctx.WithURL(routing.WithPrefix(vctx.Prefix, composite.ContextURL))
		visit := &VisitURL{URL: composite.ContextURL}
		stamp(visit, target, query)
		composite.Commands = append(composite.Commands, visit)
	}

	for _, cmdLine := range translation.Commands {
		cmd, decision := ParseGrammar(cmdLine, target)
		switch decision {
		case DecisionMatched:
			composite.Commands = append(composite.Commands, cmd)
		case DecisionUnmatched:
			search := &Search{Terms: asPlainText(cmdLine)}
			stamp(search, target, cmdLine)
			composite.Commands = append(composite.Commands, search)
		default:
			logging.ParserDebug("Generated line %q produced no command", cmdLine)
		}
	}

	stamp(composite, target, query)
	logging.Parser("AI parse: %q -> %d commands", query, len(composite.Commands))
	return composite, nil
}
