package acad

import (
	"fmt"
	"strings"

	"github.com/vietddude/acadcom/internal/core/geom"
	"github.com/vietddude/acadcom/internal/core/hresult"
	"github.com/vietddude/acadcom/internal/infra/proxy"
)

// allowArbitraryInput is the InitializeUserInput bit that lets GetString and
// GetPoint accept free text, reported as a keyword.
const allowArbitraryInput = 128

// Keyword is one option offered at a prompt.
type Keyword struct {
	// Name is what the prompt returns when the option is chosen.
	Name string
	// Label is what the user sees and types.
	Label string
}

// Options are the keywords offered at a prompt, in display order.
type Options struct {
	Keywords []Keyword
	// Default is the Name chosen when the user just presses Enter.
	Default string
}

// initString is the keyword list passed to InitializeUserInput.
func (o Options) initString() string {
	labels := make([]string, len(o.Keywords))
	for i, k := range o.Keywords {
		labels[i] = strings.ReplaceAll(k.Label, " ", "")
	}
	return strings.Join(labels, " ")
}

// display renders " [A/<B>/C]", marking the default, or "" without
// keywords.
func (o Options) display() string {
	if len(o.Keywords) == 0 {
		return ""
	}
	labels := make([]string, len(o.Keywords))
	for i, k := range o.Keywords {
		if k.Name == o.Default {
			labels[i] = "<" + k.Label + ">"
		} else {
			labels[i] = k.Label
		}
	}
	return " [" + strings.Join(labels, "/") + "]"
}

// match resolves typed text to a keyword Name. Empty text selects the
// default; otherwise the first keyword whose label starts with text wins,
// ignoring case and spaces.
func (o Options) match(text string) (string, bool) {
	if text == "" {
		return o.Default, o.Default != ""
	}
	text = strings.ToLower(text)
	for _, k := range o.Keywords {
		label := strings.ToLower(strings.ReplaceAll(k.Label, " ", ""))
		if strings.HasPrefix(label, text) {
			return k.Name, true
		}
	}
	return "", false
}

// InputKind says what an Input carries.
type InputKind int

const (
	// InputValue: the user entered data.
	InputValue InputKind = iota + 1
	// InputOption: the user chose a keyword.
	InputOption
)

// Input is the result of a prompt.
type Input struct {
	Kind   InputKind
	Value  any
	Option string
}

// TextKind selects what Text accepts.
type TextKind int

const (
	// TextWord accepts a string without spaces.
	TextWord TextKind = iota
	// TextSpaced accepts a string with spaces.
	TextSpaced
	// TextInt accepts an integer.
	TextInt
	// TextFloat accepts a number with "." or "," as separator.
	TextFloat
)

// Prompter runs interactive prompts on a document's command line.
type Prompter struct {
	utility proxy.Object
}

// NewPrompter returns a Prompter for doc.
func NewPrompter(doc proxy.Object) (*Prompter, error) {
	utility, err := proxy.ObjectAttr(doc, "Utility")
	if err != nil {
		return nil, fmt.Errorf("read utility: %w", err)
	}
	return &Prompter{utility: utility}, nil
}

// Message prints msg on the command line.
func (p *Prompter) Message(msg string) error {
	_, err := proxy.Call(p.utility, "Prompt", msg)
	return err
}

// Text prompts for a value of kind. A typed keyword yields an option; a
// value that does not parse as kind is asked for again.
func (p *Prompter) Text(kind TextKind, prompt string, opts Options) (Input, error) {
	if err := p.initialize(opts); err != nil {
		return Input{}, err
	}

	spaced := 0
	if kind == TextSpaced {
		spaced = 1
	}
	message := "\n" + prompt + opts.display()

	for {
		v, err := proxy.Call(p.utility, "GetString", spaced, message)
		if err != nil {
			return Input{}, p.translate(err)
		}
		text, _ := v.(string)

		if name, ok := opts.match(text); ok {
			return Input{Kind: InputOption, Option: name}, nil
		}

		switch kind {
		case TextWord, TextSpaced:
			return Input{Kind: InputValue, Value: text}, nil
		case TextInt:
			if n, err := ParseInt(text); err == nil {
				return Input{Kind: InputValue, Value: n}, nil
			}
		case TextFloat:
			if f, err := ParseFloat(text); err == nil {
				return Input{Kind: InputValue, Value: f}, nil
			}
		}
		// GetString consumes the keyword setup; restore it for the retry.
		if err := p.initialize(opts); err != nil {
			return Input{}, err
		}
	}
}

// Keyword prompts until the user picks one of opts.
func (p *Prompter) Keyword(prompt string, opts Options) (Input, error) {
	message := "\n" + prompt + opts.display()
	for {
		if err := p.initialize(opts); err != nil {
			return Input{}, err
		}
		v, err := proxy.Call(p.utility, "GetKeyword", message)
		if err != nil {
			return Input{}, p.translate(err)
		}
		text, _ := v.(string)
		if name, ok := opts.match(text); ok {
			return Input{Kind: InputOption, Option: name}, nil
		}
	}
}

// Distance measures a polyline path picked point by point and returns its
// total length in the XY plane. At the first point a keyword from opts may
// be typed instead; afterwards Enter (or F) finishes.
func (p *Prompter) Distance(opts Options) (Input, error) {
	var prev geom.Point
	for {
		if err := p.initialize(opts); err != nil {
			return Input{}, err
		}
		if err := p.Message("\nSpecify first point" + opts.display()); err != nil {
			return Input{}, err
		}

		pt, err := p.point()
		if err == nil {
			prev = pt
			break
		}
		if !hresult.Is(err, hresult.E_KEYWORD_INPUT) {
			return Input{}, p.translate(err)
		}

		text, err := p.input()
		if err != nil {
			return Input{}, err
		}
		if name, ok := opts.match(text); ok {
			return Input{Kind: InputOption, Option: name}, nil
		}
	}

	var total float64
	for {
		if err := p.initialize(Options{}); err != nil {
			return Input{}, err
		}
		pt, err := p.point(prev.Coordinates(), "\nSpecify next point [Enter to finish]")
		if err == nil {
			total += geom.Distance2D(prev, pt)
			prev = pt
			continue
		}
		if !hresult.Is(err, hresult.E_KEYWORD_INPUT) {
			return Input{}, p.translate(err)
		}

		text, err := p.input()
		if err != nil {
			return Input{}, err
		}
		if isFinish(text) {
			return Input{Kind: InputValue, Value: total}, nil
		}
	}
}

func isFinish(text string) bool {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "", "F", "В":
		return true
	}
	return false
}

func (p *Prompter) initialize(opts Options) error {
	_, err := proxy.Call(p.utility, "InitializeUserInput", allowArbitraryInput, opts.initString())
	if err != nil {
		return fmt.Errorf("initialize user input: %w", err)
	}
	return nil
}

func (p *Prompter) point(args ...any) (geom.Point, error) {
	v, err := proxy.Call(p.utility, "GetPoint", args...)
	if err != nil {
		return geom.Point{}, err
	}
	coords, err := proxy.ToFloats(v)
	if err != nil {
		return geom.Point{}, fmt.Errorf("point: %w", err)
	}
	return geom.PointFrom(coords)
}

func (p *Prompter) input() (string, error) {
	v, err := proxy.Call(p.utility, "GetInput")
	if err != nil {
		return "", p.translate(err)
	}
	text, _ := v.(string)
	return text, nil
}

// translate maps a user abort to ErrCanceled, after telling the user.
func (p *Prompter) translate(err error) error {
	if !isCancel(err) {
		return err
	}
	_ = p.Message("Canceled by user\n")
	return ErrCanceled
}

func isCancel(err error) bool {
	return hresult.Is(err, hresult.DISP_E_EXCEPTION)
}
