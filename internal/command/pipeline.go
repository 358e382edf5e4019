package command

import (
	"context"

	"cmdbar/internal/logging"
	"cmdbar/internal/view"
)

// Pipeline is the two-stage parser: grammar first, translator second. It is
// the only place an unmatched line may be sent to the translator.
type Pipeline struct {
	ai *AIParser
}

// NewPipeline creates a pipeline. A nil translator turns unmatched lines
// into searches.
func NewPipeline(translator Translator) *Pipeline {
	p := &Pipeline{}
	if translator != nil {
		p.ai = NewAIParser(translator)
	}
	return p
}

// Parse resolves raw typed in vctx to a command. A nil command with a nil
// error means the line maps to no command.
func (p *Pipeline) Parse(ctx context.Context, raw string, vctx *view.Context) (Command, error) {
	cmd, decision := ParseGrammar(raw, vctx)
	switch decision {
	case DecisionMatched:
		return cmd, nil
	case DecisionNoCommand:
		logging.Parser("No command for %q", raw)
		return nil, nil
	}

	if p.ai == nil {
		search := &Search{Terms: asPlainText(raw)}
		stamp(search, vctx, asPlainText(raw))
		return search, nil
	}
	composite, err := p.ai.Parse(ctx, asPlainText(raw), vctx)
	if err != nil {
		return nil, err
	}
	return composite, nil
}
