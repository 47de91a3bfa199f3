package dialogue

// Intent is what a keyword rule detected in an utterance.
type Intent string

const (
	IntentBook         Intent = "book"
	IntentAvailability Intent = "availability"
	IntentHelp         Intent = "help"
	IntentTaxi         Intent = "taxi"
	IntentFlight       Intent = "flight"
	IntentHotel        Intent = "hotel"
	IntentRestaurant   Intent = "restaurant"
	IntentAffirm       Intent = "affirm"
	IntentStatus       Intent = "status"
	// IntentCapture matches any utterance; the raw text becomes the value.
	IntentCapture Intent = "capture"
	// IntentUnknown is reported when no rule of the step matched.
	IntentUnknown Intent = "unknown"
)

// Rule maps keywords to an intent. A rule with no keywords matches every
// utterance. When Requires is set the utterance must also contain one of
// those words. Value, when set, is what the rule stores in a slot instead of
// the raw utterance.
type Rule struct {
	Intent   Intent
	Keywords []string
	Requires []string
	Value    string
}

// SlotEffect says what a transition does to the slots it was given.
type SlotEffect int

const (
	KeepSlots SlotEffect = iota
	ResetSlots
	StoreSlot
)

func (e SlotEffect) String() string {
	switch e {
	case KeepSlots:
		return "keep"
	case ResetSlots:
		return "reset"
	case StoreSlot:
		return "store"
	default:
		return "unknown"
	}
}

// Transition is one edge of the conversation graph. Reply is a template:
// {input} is the raw utterance, {value} the detected value, {name} the
// assistant name and {<slot>} the incoming value of that slot.
type Transition struct {
	Next    Step
	Reply   string
	Options []string
	Effect  SlotEffect
	Slot    string
}

// Row is a flattened (step, intent) -> transition entry, for inspection.
type Row struct {
	Step       Step
	Intent     Intent
	Transition Transition
}

type node struct {
	rules []Rule
	edges map[Intent]Transition
}

const escalationReply = "I'll connect you with a live agent. Please wait a moment while I transfer your chat."

var escalationKeywords = []string{"agent", "human", "live agent"}

var (
	categoryOptions = []string{"Taxi", "Flight", "Hotel", "Restaurant"}

	categoryRules = []Rule{
		{Intent: IntentTaxi, Keywords: []string{"taxi"}, Value: "taxi"},
		{Intent: IntentFlight, Keywords: []string{"flight"}, Value: "flight"},
		{Intent: IntentHotel, Keywords: []string{"hotel"}, Value: "hotel"},
		{Intent: IntentRestaurant, Keywords: []string{"restaurant"}, Value: "restaurant"},
	}

	captureRules = []Rule{{Intent: IntentCapture}}
)

// closing handles completion, escalated, the category prompts that have no
// sub-flow of their own, and any step the table does not know.
var closing = node{
	rules: []Rule{
		{Intent: IntentBook, Keywords: []string{"book", "service", "another"}},
		{Intent: IntentStatus, Keywords: []string{"check", "status"}},
	},
	edges: map[Intent]Transition{
		IntentBook: {
			Next:    StepServiceType,
			Reply:   "What type of service would you like to book?",
			Options: categoryOptions,
			Effect:  ResetSlots,
		},
		IntentStatus: {
			Next:    StepCompletion,
			Reply:   "Your booking is confirmed and everything is on schedule. Is there anything else you'd like to know?",
			Options: []string{"Book another service", "No, thank you"},
		},
		IntentUnknown: {
			Next:    StepGreeting,
			Reply:   "Thank you for using {name}! Feel free to reach out if you need any assistance in the future.",
			Options: []string{"Book a service", "Check availability"},
			Effect:  ResetSlots,
		},
	},
}

var bookKeywords = []string{"book", "service"}

var graph = map[Step]node{
	StepGreeting: {
		rules: append(directBooking(), []Rule{
			{Intent: IntentBook, Keywords: bookKeywords},
			{Intent: IntentAvailability, Keywords: []string{"availability", "check"}},
			{Intent: IntentHelp, Keywords: []string{"help"}},
		}...),
		edges: greetingEdges(),
	},
	StepServiceType: {
		rules: categoryRules,
		edges: categoryEdges(),
	},
	StepTaxiPickup: {
		rules: captureRules,
		edges: map[Intent]Transition{
			IntentCapture: {
				Next:   StepTaxiDestination,
				Reply:  `Great, I've noted your pickup location: "{input}". What's your destination?`,
				Effect: StoreSlot,
				Slot:   SlotPickupLocation,
			},
		},
	},
	StepTaxiDestination: {
		rules: captureRules,
		edges: map[Intent]Transition{
			IntentCapture: {
				Next:    StepTaxiTime,
				Reply:   "Thanks! When would you like to be picked up?",
				Options: []string{"Now", "In 30 minutes", "In 1 hour", "Tomorrow", "Specific time"},
				Effect:  StoreSlot,
				Slot:    SlotDestination,
			},
		},
	},
	StepTaxiTime: {
		rules: captureRules,
		edges: map[Intent]Transition{
			IntentCapture: {
				Next:    StepCompletion,
				Reply:   "Perfect! I've booked a taxi from {pickupLocation} to {destination} for {input}. Your driver will arrive on time. Is there anything else you'd like help with?",
				Options: []string{"Book another service", "Check status", "No, thank you"},
				Effect:  StoreSlot,
				Slot:    SlotPickupTime,
			},
		},
	},
	StepCheckAvailability: {
		rules: categoryRules,
		edges: availabilityEdges(),
	},
	StepAvailabilityDate: {
		rules: captureRules,
		edges: map[Intent]Transition{
			IntentCapture: {
				Next:    StepAvailabilityConfirmation,
				Reply:   "Great! I can confirm that {serviceType} services are available for {input}. Would you like to proceed with booking?",
				Options: []string{"Yes, book now", "No, thank you"},
				Effect:  StoreSlot,
				Slot:    SlotDate,
			},
		},
	},
	StepAvailabilityConfirmation: {
		rules: []Rule{
			{Intent: IntentAffirm, Keywords: []string{"yes", "book"}},
		},
		edges: map[Intent]Transition{
			IntentAffirm: {
				Next:    StepServiceType,
				Reply:   "Excellent! Let's proceed with your booking.",
				Options: []string{"Continue"},
			},
			IntentUnknown: {
				Next:    StepGreeting,
				Reply:   "No problem! Is there anything else I can help you with?",
				Options: []string{"Book a service", "Check other availability", "No, thank you"},
				Effect:  ResetSlots,
			},
		},
	},
	StepCompletion:        closing,
	StepEscalated:         closing,
	StepFlightDetails:     closing,
	StepHotelCity:         closing,
	StepRestaurantCuisine: closing,
}

// directBooking lets "book a taxi" skip the category question when the
// category is already named. Only "book" qualifies: "service" alone also
// shows up in availability questions.
func directBooking() []Rule {
	rules := make([]Rule, len(categoryRules))
	for i, r := range categoryRules {
		r.Requires = []string{"book"}
		rules[i] = r
	}
	return rules
}

func greetingEdges() map[Intent]Transition {
	edges := categoryEdges()
	edges[IntentBook] = Transition{
		Next:    StepServiceType,
		Reply:   "Great! What type of service would you like to book?",
		Options: categoryOptions,
	}
	edges[IntentAvailability] = Transition{
		Next:    StepCheckAvailability,
		Reply:   "I can help you check availability. What service are you interested in?",
		Options: categoryOptions,
	}
	edges[IntentHelp] = Transition{
		Next:    StepGreeting,
		Reply:   "I'm here to help! I can assist with booking services, checking availability, or connecting you with a live agent. What would you like help with?",
		Options: []string{"Book a service", "Check availability", "Live agent"},
		Effect:  ResetSlots,
	}
	edges[IntentUnknown] = Transition{
		Next:    StepGreeting,
		Reply:   "I can help you book services, check availability, or connect you with a live agent. What would you like to do?",
		Options: []string{"Book a service", "Check availability", "Live agent"},
		Effect:  ResetSlots,
	}
	return edges
}

func categoryEdges() map[Intent]Transition {
	return map[Intent]Transition{
		IntentTaxi: {
			Next:   StepTaxiPickup,
			Reply:  "Where would you like to be picked up?",
			Effect: StoreSlot,
			Slot:   SlotServiceType,
		},
		IntentFlight: {
			Next:   StepFlightDetails,
			Reply:  "Please provide your departure city and destination city.",
			Effect: StoreSlot,
			Slot:   SlotServiceType,
		},
		IntentHotel: {
			Next:   StepHotelCity,
			Reply:  "What city will you be staying in?",
			Effect: StoreSlot,
			Slot:   SlotServiceType,
		},
		IntentRestaurant: {
			Next:    StepRestaurantCuisine,
			Reply:   "What type of cuisine are you interested in?",
			Options: []string{"Italian", "Japanese", "Mexican", "Indian", "American"},
			Effect:  StoreSlot,
			Slot:    SlotServiceType,
		},
		IntentUnknown: {
			Next:    StepServiceType,
			Reply:   "I'm not sure which service you'd like to book. Could you choose one of the following?",
			Options: categoryOptions,
		},
	}
}

func availabilityEdges() map[Intent]Transition {
	edges := map[Intent]Transition{
		IntentUnknown: {
			Next:    StepCheckAvailability,
			Reply:   "Which service would you like to check availability for?",
			Options: categoryOptions,
		},
	}
	for _, r := range categoryRules {
		edges[r.Intent] = Transition{
			Next:    StepAvailabilityDate,
			Reply:   "I'm checking availability for {value} services. When would you need this service?",
			Options: []string{"Today", "Tomorrow", "This weekend", "Next week", "Specific date"},
			Effect:  StoreSlot,
			Slot:    SlotServiceType,
		}
	}
	return edges
}

func lookup(step Step) node {
	if n, ok := graph[step]; ok {
		return n
	}
	return closing
}

// Table returns every (step, intent) edge in step order, then rule order,
// with the unknown branch last.
func Table() []Row {
	var rows []Row
	for _, step := range Steps() {
		n := lookup(step)
		for _, r := range n.rules {
			if t, ok := n.edges[r.Intent]; ok {
				rows = append(rows, Row{Step: step, Intent: r.Intent, Transition: t})
			}
		}
		if t, ok := n.edges[IntentUnknown]; ok {
			rows = append(rows, Row{Step: step, Intent: IntentUnknown, Transition: t})
		}
	}
	return rows
}
