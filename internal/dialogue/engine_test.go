package dialogue

import (
	"strings"
	"testing"
)

func run(t *testing.T, e *Engine, state State, utterances ...string) Output {
	t.Helper()
	var out Output
	for _, u := range utterances {
		out = e.Respond(u, state)
		state = out.NextState
	}
	return out
}

func TestRespondTotality(t *testing.T) {
	e := NewEngine()
	inputs := []string{
		"",
		"   ",
		"\t\n",
		strings.Repeat("lorem ipsum ", 5000),
		"こんにちは",
		"Ünïcödé BÖÖK",
		"{input} {pickupLocation}",
	}
	steps := append(Steps(), Step("no_such_step"), Step(""))

	for _, step := range steps {
		for _, in := range inputs {
			out := e.Respond(in, State{Step: step, Slots: map[string]string{SlotServiceType: "taxi"}})
			if out.Message == "" {
				t.Errorf("step %q input %q: empty message", step, in)
			}
			if !out.NextState.Step.Valid() {
				t.Errorf("step %q input %q: invalid next step %q", step, in, out.NextState.Step)
			}
			if out.Options == nil {
				t.Errorf("step %q input %q: nil options", step, in)
			}
			if out.NextState.Slots == nil {
				t.Errorf("step %q input %q: nil slots", step, in)
			}
		}
	}
}

func TestRespondNilSlots(t *testing.T) {
	e := NewEngine()
	out := e.Respond("Main St", State{Step: StepTaxiTime})
	if out.NextState.Slots[SlotPickupTime] != "Main St" {
		t.Errorf("pickupTime = %q, want %q", out.NextState.Slots[SlotPickupTime], "Main St")
	}
	if !strings.Contains(out.Message, "from  to  for Main St") {
		t.Errorf("missing slots should render empty, got %q", out.Message)
	}
}

func TestEscalationPrecedence(t *testing.T) {
	e := NewEngine()
	slots := map[string]string{SlotServiceType: "taxi", SlotPickupLocation: "Main St"}
	utterances := []string{"agent", "I want an AGENT", "Human please", "live agent", "book a taxi with an agent"}

	for _, step := range Steps() {
		for _, u := range utterances {
			out := e.Respond(u, State{Step: step, Slots: slots})
			if out.NextState.Step != StepEscalated {
				t.Errorf("step %q input %q: got step %q, want escalated", step, u, out.NextState.Step)
			}
			if out.Message != escalationReply {
				t.Errorf("step %q input %q: message = %q", step, u, out.Message)
			}
			if len(out.Options) != 0 {
				t.Errorf("step %q input %q: options = %v, want none", step, u, out.Options)
			}
			if len(out.NextState.Slots) != 2 || out.NextState.Slots[SlotPickupLocation] != "Main St" {
				t.Errorf("step %q input %q: slots changed to %v", step, u, out.NextState.Slots)
			}
		}
	}
}

func TestTaxiBookingAccumulatesSlots(t *testing.T) {
	e := NewEngine()
	out := run(t, e, Initial(), "book a taxi", "Main St", "Airport", "now")

	want := map[string]string{
		SlotServiceType:    "taxi",
		SlotPickupLocation: "Main St",
		SlotDestination:    "Airport",
		SlotPickupTime:     "now",
	}
	if out.NextState.Step != StepCompletion {
		t.Fatalf("step = %q, want completion", out.NextState.Step)
	}
	if len(out.NextState.Slots) != len(want) {
		t.Errorf("slots = %v, want %v", out.NextState.Slots, want)
	}
	for k, v := range want {
		if out.NextState.Slots[k] != v {
			t.Errorf("slot %s = %q, want %q", k, out.NextState.Slots[k], v)
		}
	}
	for _, s := range []string{"Main St", "Airport", "now"} {
		if !strings.Contains(out.Message, s) {
			t.Errorf("message %q does not contain %q", out.Message, s)
		}
	}
}

func TestBookServiceThenCategory(t *testing.T) {
	e := NewEngine()
	state := Initial()
	steps := []struct {
		in   string
		want Step
	}{
		{"Book a service", StepServiceType},
		{"Taxi", StepTaxiPickup},
		{"Main St", StepTaxiDestination},
		{"Airport", StepTaxiTime},
		{"now", StepCompletion},
	}
	for _, s := range steps {
		out := e.Respond(s.in, state)
		if out.NextState.Step != s.want {
			t.Fatalf("after %q: step = %q, want %q", s.in, out.NextState.Step, s.want)
		}
		state = out.NextState
	}
	if state.Slots[SlotPickupLocation] != "Main St" || state.Slots[SlotDestination] != "Airport" || state.Slots[SlotPickupTime] != "now" {
		t.Errorf("slots = %v", state.Slots)
	}
}

func TestResetOnRestart(t *testing.T) {
	e := NewEngine()
	filled := map[string]string{SlotServiceType: "hotel", SlotDate: "tomorrow"}

	tests := []struct {
		name string
		step Step
		in   string
	}{
		{"completion", StepCompletion, "no, thank you"},
		{"escalated", StepEscalated, "bye"},
		{"availability declined", StepAvailabilityConfirmation, "no"},
		{"flight prompt", StepFlightDetails, "Paris to Rome"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Respond(tt.in, State{Step: tt.step, Slots: filled})
			if out.NextState.Step != StepGreeting {
				t.Errorf("step = %q, want greeting", out.NextState.Step)
			}
			if len(out.NextState.Slots) != 0 {
				t.Errorf("slots = %v, want empty", out.NextState.Slots)
			}
		})
	}
}

func TestUnrecognizedCategoryRePrompts(t *testing.T) {
	e := NewEngine()
	in := State{Step: StepServiceType, Slots: map[string]string{SlotDate: "friday"}}
	out := e.Respond("a spaceship", in)

	if out.NextState.Step != StepServiceType {
		t.Errorf("step = %q, want service_type", out.NextState.Step)
	}
	if len(out.NextState.Slots) != 1 || out.NextState.Slots[SlotDate] != "friday" {
		t.Errorf("slots = %v, want unchanged", out.NextState.Slots)
	}
	if len(out.Options) != 4 {
		t.Errorf("options = %v, want the four categories", out.Options)
	}
}

func TestCaseInsensitivity(t *testing.T) {
	e := NewEngine()
	var first Output
	for i, in := range []string{"BOOK A SERVICE", "Book A Service", "book a service"} {
		out := e.Respond(in, Initial())
		if out.NextState.Step != StepServiceType {
			t.Errorf("%q: step = %q, want service_type", in, out.NextState.Step)
		}
		if i == 0 {
			first = out
			continue
		}
		if out.Message != first.Message {
			t.Errorf("%q: message %q differs from %q", in, out.Message, first.Message)
		}
	}
}

func TestRespondDoesNotMutateInput(t *testing.T) {
	e := NewEngine()
	in := State{Step: StepTaxiPickup, Slots: map[string]string{SlotServiceType: "taxi"}}
	out := e.Respond("Main St", in)

	if _, ok := in.Slots[SlotPickupLocation]; ok {
		t.Error("incoming slots were mutated")
	}
	out.NextState.Slots["extra"] = "x"
	if _, ok := in.Slots["extra"]; ok {
		t.Error("next state shares its slot map with the incoming state")
	}
}

func TestAvailabilityFlow(t *testing.T) {
	e := NewEngine()
	state := Initial()

	out := e.Respond("Check availability", state)
	if out.NextState.Step != StepCheckAvailability {
		t.Fatalf("step = %q, want check_availability", out.NextState.Step)
	}
	out = e.Respond("Hotel", out.NextState)
	if out.NextState.Step != StepAvailabilityDate || out.NextState.Slots[SlotServiceType] != "hotel" {
		t.Fatalf("got %+v", out.NextState)
	}
	if !strings.Contains(out.Message, "availability for hotel services") {
		t.Errorf("message = %q", out.Message)
	}
	out = e.Respond("This weekend", out.NextState)
	if out.NextState.Step != StepAvailabilityConfirmation {
		t.Fatalf("step = %q", out.NextState.Step)
	}
	if !strings.Contains(out.Message, "hotel services are available for This weekend") {
		t.Errorf("message = %q", out.Message)
	}
	out = e.Respond("Yes, book now", out.NextState)
	if out.NextState.Step != StepServiceType {
		t.Errorf("step = %q, want service_type", out.NextState.Step)
	}
	if out.NextState.Slots[SlotDate] != "This weekend" || out.NextState.Slots[SlotServiceType] != "hotel" {
		t.Errorf("slots not preserved: %v", out.NextState.Slots)
	}
}

func TestFirstMatchWins(t *testing.T) {
	tests := []struct {
		step Step
		in   string
		want Intent
	}{
		{StepGreeting, "check if I can book", IntentBook},
		{StepGreeting, "book a hotel or a taxi", IntentTaxi},
		{StepGreeting, "check the hotel", IntentAvailability},
		{StepGreeting, "help me check", IntentAvailability},
		{StepServiceType, "hotel near the restaurant", IntentHotel},
		{StepServiceType, "restaurant then taxi", IntentTaxi},
		{StepCompletion, "check another", IntentBook},
		{StepCompletion, "status", IntentStatus},
		{StepCompletion, "bye", IntentUnknown},
		{StepTaxiPickup, "", IntentCapture},
		{StepAvailabilityConfirmation, "YES", IntentAffirm},
	}
	for _, tt := range tests {
		if got := Detect(tt.step, tt.in); got != tt.want {
			t.Errorf("Detect(%q, %q) = %q, want %q", tt.step, tt.in, got, tt.want)
		}
	}
}

func TestCompletionBranches(t *testing.T) {
	e := NewEngine()
	done := State{Step: StepCompletion, Slots: map[string]string{SlotServiceType: "taxi", SlotPickupTime: "now"}}

	out := e.Respond("Book another service", done)
	if out.NextState.Step != StepServiceType || len(out.NextState.Slots) != 0 {
		t.Errorf("book another: got %+v", out.NextState)
	}

	out = e.Respond("Check status", done)
	if out.NextState.Step != StepCompletion || out.NextState.Slots[SlotPickupTime] != "now" {
		t.Errorf("check status: got %+v", out.NextState)
	}

	out = e.Respond("No, thank you", done)
	if !strings.Contains(out.Message, "Thank you for using Abdullah Assistant!") {
		t.Errorf("closing message = %q", out.Message)
	}
}

func TestWithName(t *testing.T) {
	e := NewEngine(WithName("Concierge"))
	out := e.Respond("bye", State{Step: StepCompletion})
	if !strings.Contains(out.Message, "Thank you for using Concierge!") {
		t.Errorf("message = %q", out.Message)
	}
	if NewEngine(WithName("")).Name() != DefaultName {
		t.Error("empty name should keep the default")
	}
}

func TestCaptureKeepsRawText(t *testing.T) {
	e := NewEngine()
	out := e.Respond("  221B Baker St  ", State{Step: StepTaxiPickup, Slots: map[string]string{}})
	if got := out.NextState.Slots[SlotPickupLocation]; got != "  221B Baker St  " {
		t.Errorf("pickupLocation = %q", got)
	}
	if !strings.Contains(out.Message, `"  221B Baker St  "`) {
		t.Errorf("message = %q", out.Message)
	}
}

func TestPlaceholdersInInputAreNotExpanded(t *testing.T) {
	e := NewEngine()
	in := State{Step: StepTaxiTime, Slots: map[string]string{SlotPickupLocation: "A", SlotDestination: "B"}}
	out := e.Respond("{destination}", in)
	if !strings.Contains(out.Message, "from A to B for {destination}.") {
		t.Errorf("message = %q", out.Message)
	}
}

func TestGreetingDirectBookingNeedsBook(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		in       string
		want     Step
		wantSlot string
	}{
		{"check hotel service availability", StepCheckAvailability, ""},
		{"hotel service", StepServiceType, ""},
		{"book a flight", StepFlightDetails, "flight"},
		{"Book a restaurant", StepRestaurantCuisine, "restaurant"},
		{"book a hotel", StepHotelCity, "hotel"},
	}
	for _, tt := range tests {
		out := e.Respond(tt.in, Initial())
		if out.NextState.Step != tt.want {
			t.Errorf("%q: step = %q, want %q", tt.in, out.NextState.Step, tt.want)
		}
		if got := out.NextState.Slots[SlotServiceType]; got != tt.wantSlot {
			t.Errorf("%q: serviceType = %q, want %q", tt.in, got, tt.wantSlot)
		}
	}
}
