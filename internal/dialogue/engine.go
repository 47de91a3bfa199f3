package dialogue

import "strings"

// DefaultName is the assistant name used in replies when none is configured.
const DefaultName = "Abdullah Assistant"

// Engine answers one turn at a time. It holds no per-conversation data and is
// safe for concurrent use.
type Engine struct {
	name string
}

// Option configures an Engine.
type Option func(*Engine)

// WithName sets the assistant name used in replies.
func WithName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.name = name
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{name: DefaultName}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Name returns the assistant name.
func (e *Engine) Name() string { return e.name }

// Respond computes the reply and next state for utterance in state.
// It never fails: input that matches nothing gets a clarifying prompt.
func (e *Engine) Respond(utterance string, state State) Output {
	input := strings.ToLower(utterance)

	if containsAny(input, escalationKeywords) {
		return Output{
			Message:   escalationReply,
			Options:   []string{},
			NextState: State{Step: StepEscalated, Slots: state.cloneSlots()},
		}
	}

	n := lookup(state.Step)
	intent, value := detect(n.rules, input, utterance)
	t, ok := n.edges[intent]
	if !ok {
		t = n.edges[IntentUnknown]
	}

	return Output{
		Message:   e.render(t.Reply, state, utterance, value),
		Options:   append([]string{}, t.Options...),
		NextState: apply(t, state, value),
	}
}

// Detect reports the intent the rules of step find in utterance.
func Detect(step Step, utterance string) Intent {
	intent, _ := detect(lookup(step).rules, strings.ToLower(utterance), utterance)
	return intent
}

func detect(rules []Rule, input, raw string) (Intent, string) {
	for _, r := range rules {
		if len(r.Keywords) > 0 && !containsAny(input, r.Keywords) {
			continue
		}
		if len(r.Requires) == 0 || containsAny(input, r.Requires) {
			if r.Value != "" {
				return r.Intent, r.Value
			}
			return r.Intent, raw
		}
	}
	return IntentUnknown, ""
}

func apply(t Transition, in State, value string) State {
	var slots map[string]string
	switch t.Effect {
	case ResetSlots:
		slots = map[string]string{}
	case StoreSlot:
		slots = in.cloneSlots()
		slots[t.Slot] = value
	default:
		slots = in.cloneSlots()
	}
	return State{Step: t.Next, Slots: slots}
}

// render fills a reply template from the incoming state. Substituted values
// are never re-scanned for placeholders.
func (e *Engine) render(tmpl string, in State, input, value string) string {
	pairs := []string{"{input}", input, "{value}", value, "{name}", e.name}
	for _, s := range slotNames {
		pairs = append(pairs, "{"+s+"}", in.Slot(s))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
