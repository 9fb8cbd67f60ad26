package tui

import (
	"encoding/json"
	"io"

	"github.com/aretw0/pathquiz/pkg/domain"
)

// JSONView writes one JSON object per line for headless clients.
type JSONView struct {
	enc *json.Encoder
}

// Message is a line written by JSONView.
type Message struct {
	Type      string            `json:"type"`
	Directive *domain.Directive `json:"directive,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

// Message types.
const (
	MessageDirective = "directive"
	MessageIgnored   = "ignored"
)

// NewJSONView creates a view writing JSON lines to w.
func NewJSONView(w io.Writer) *JSONView {
	return &JSONView{enc: json.NewEncoder(w)}
}

// Directive implements View.
func (v *JSONView) Directive(d domain.Directive) {
	_ = v.enc.Encode(Message{Type: MessageDirective, Directive: &d})
}

// Ignored implements View.
func (v *JSONView) Ignored(reason string) {
	_ = v.enc.Encode(Message{Type: MessageIgnored, Reason: reason})
}
