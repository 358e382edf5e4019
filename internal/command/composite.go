package command

import (
	"context"
	"fmt"
	"strings"
)

// Composite is an ordered bundle of commands issued by one line. It runs
// all-or-nothing: if any child needs confirmation, none runs until the
// whole bundle is confirmed.
type Composite struct {
	Base
	TitleText string
	// ContextURL is the filtered list the children act on, if any.
	ContextURL string
	Commands   []Command
}

func (c *Composite) Kind() Kind { return KindComposite }

func (c *Composite) Title() string { return c.TitleText }

func (c *Composite) NeedsConfirmation() bool {
	return c.firstPending() != nil
}

// Confirmation is the first pending child's confirmation.
func (c *Composite) Confirmation() string {
	if p := c.firstPending(); p != nil {
		return p.Confirmation()
	}
	return ""
}

// PendingRedirect is where to send the user while they confirm: the list
// the children will act on.
func (c *Composite) PendingRedirect() string {
	if c.ContextURL == "" {
		return ""
	}
	return c.path(c.ContextURL)
}

func (c *Composite) firstPending() Command {
	for _, child := range c.Commands {
		if child.NeedsConfirmation() {
			return child
		}
	}
	return nil
}

// Execute runs the children in order. Messages are joined; the redirect is
// the last one any child asked for. The caller provides atomicity.
func (c *Composite) Execute(ctx context.Context, app Applier) (Result, error) {
	var messages []string
	var redirect string
	for _, child := range c.Commands {
		res, err := child.Execute(ctx, app)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", child.Title(), err)
		}
		if res.Message != "" {
			messages = append(messages, res.Message)
		}
		if res.Redirect != "" {
			redirect = res.Redirect
		}
	}
	return Result{Message: strings.Join(messages, ". "), Redirect: redirect}, nil
}

// Undo reverts the children in reverse order.
func (c *Composite) Undo(ctx context.Context, app Applier) (Result, error) {
	var messages []string
	var redirect string
	for i := len(c.Commands) - 1; i >= 0; i-- {
		res, err := c.Commands[i].Undo(ctx, app)
		if err != nil {
			return Result{}, fmt.Errorf("undo %s: %w", c.Commands[i].Title(), err)
		}
		if res.Message != "" {
			messages = append(messages, res.Message)
		}
		if res.Redirect != "" {
			redirect = res.Redirect
		}
	}
	return Result{Message: strings.Join(messages, ". "), Redirect: redirect}, nil
}
