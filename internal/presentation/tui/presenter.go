package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/muesli/termenv"
)

// Presenter draws directives as text.
type Presenter struct {
	w       io.Writer
	render  func(string) (string, error)
	profile termenv.Profile
}

// PresenterOption configures a Presenter.
type PresenterOption func(*Presenter)

// WithMarkdownRenderer sets the renderer used for the result screen.
func WithMarkdownRenderer(r func(string) (string, error)) PresenterOption {
	return func(p *Presenter) {
		if r != nil {
			p.render = r
		}
	}
}

// WithProfile sets the color profile. termenv.Ascii disables colors.
func WithProfile(profile termenv.Profile) PresenterOption {
	return func(p *Presenter) {
		p.profile = profile
	}
}

// NewPresenter creates a plain presenter writing to w.
func NewPresenter(w io.Writer, opts ...PresenterOption) *Presenter {
	p := &Presenter{
		w:       w,
		render:  PlainRenderer,
		profile: termenv.Ascii,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Banner prints the banner using the presenter's color profile.
func (p *Presenter) Banner() {
	PrintBanner(p.w, p.profile)
}

// Directive prints the step indicators and either the question or the result.
func (p *Presenter) Directive(d domain.Directive) {
	fmt.Fprintln(p.w, p.Indicators(d))
	fmt.Fprintln(p.w)

	if d.Completed {
		p.Result(d.Result)
		fmt.Fprintln(p.w, p.hint("r: restart  q: quit"))
		return
	}

	fmt.Fprintln(p.w, p.profile.String(d.QuestionText).Bold())
	for i, label := range d.OptionLabels {
		marker := "  "
		line := fmt.Sprintf("%d. %s", i+1, label)
		if d.SelectedOption != nil && *d.SelectedOption == i {
			marker = "> "
			line = p.profile.String(line).Foreground(p.profile.Color("#818cf8")).String()
		}
		fmt.Fprintf(p.w, "%s%s\n", marker, line)
	}
	fmt.Fprintln(p.w)

	keys := fmt.Sprintf("1-%d: choose", len(d.OptionLabels))
	if d.CanGoBack {
		keys += "  b: back"
	}
	fmt.Fprintln(p.w, p.hint(keys+"  r: restart  q: quit"))
}

// Indicators renders the numbered step circles, e.g. "(1)-(2)-[3]".
// Answered steps are filled, the active frontier is bracketed.
func (p *Presenter) Indicators(d domain.Directive) string {
	parts := make([]string, len(d.Indicators))
	for i, ind := range d.Indicators {
		label := fmt.Sprintf("%d", ind.Index+1)
		switch {
		case ind.Completed:
			parts[i] = p.profile.String("(" + label + ")").Foreground(p.profile.Color("#22c55e")).String()
		case ind.Active:
			parts[i] = p.profile.String("[" + label + "]").Foreground(p.profile.Color("#818cf8")).Bold().String()
		default:
			parts[i] = p.profile.String(" " + label + " ").Faint().String()
		}
	}
	return strings.Join(parts, "-")
}

// Result prints the recommended learning path.
func (p *Presenter) Result(r *domain.Resolved) {
	if r == nil {
		return
	}
	out, err := p.render(ResultMarkdown(r))
	if err != nil {
		out = ResultMarkdown(r)
	}
	fmt.Fprintln(p.w, strings.TrimRight(out, "\n"))
	fmt.Fprintln(p.w)
}

// Ignored tells the user an input had no effect.
func (p *Presenter) Ignored(reason string) {
	fmt.Fprintln(p.w, p.hint(reason))
}

func (p *Presenter) hint(s string) string {
	return p.profile.String(s).Faint().String()
}

// ResultMarkdown formats a resolved result as markdown.
func ResultMarkdown(r *domain.Resolved) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Title)
	if r.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", r.Description)
	}
	if len(r.Courses) > 0 {
		sb.WriteString("## Recommended courses\n\n")
		for _, c := range r.Courses {
			fmt.Fprintf(&sb, "- %s\n", c.Title)
		}
	}
	return sb.String()
}
