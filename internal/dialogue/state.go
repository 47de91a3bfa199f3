// Package dialogue implements the scripted booking conversation: a pure
// function from (utterance, state) to a reply and the next state.
package dialogue

// Step identifies the current position in the conversation graph.
type Step string

const (
	StepGreeting                 Step = "greeting"
	StepServiceType              Step = "service_type"
	StepTaxiPickup               Step = "taxi_pickup"
	StepTaxiDestination          Step = "taxi_destination"
	StepTaxiTime                 Step = "taxi_time"
	StepFlightDetails            Step = "flight_details"
	StepHotelCity                Step = "hotel_city"
	StepRestaurantCuisine        Step = "restaurant_cuisine"
	StepCheckAvailability        Step = "check_availability"
	StepAvailabilityDate         Step = "availability_date"
	StepAvailabilityConfirmation Step = "availability_confirmation"
	StepCompletion               Step = "completion"
	StepEscalated                Step = "escalated"
)

// Steps lists every declared step in graph order.
func Steps() []Step {
	return []Step{
		StepGreeting,
		StepServiceType,
		StepTaxiPickup,
		StepTaxiDestination,
		StepTaxiTime,
		StepFlightDetails,
		StepHotelCity,
		StepRestaurantCuisine,
		StepCheckAvailability,
		StepAvailabilityDate,
		StepAvailabilityConfirmation,
		StepCompletion,
		StepEscalated,
	}
}

// Valid reports whether s is one of the declared steps.
func (s Step) Valid() bool {
	for _, v := range Steps() {
		if s == v {
			return true
		}
	}
	return false
}

// Slot names collected during a booking.
const (
	SlotServiceType    = "serviceType"
	SlotPickupLocation = "pickupLocation"
	SlotDestination    = "destination"
	SlotPickupTime     = "pickupTime"
	SlotDate           = "date"
)

var slotNames = []string{SlotServiceType, SlotPickupLocation, SlotDestination, SlotPickupTime, SlotDate}

// State is the dialogue position threaded through every turn by the host.
// Treat it as a value: transitions never modify the slots of an existing
// State, they build a new map.
type State struct {
	Step  Step              `json:"step"`
	Slots map[string]string `json:"slots"`
}

// Initial returns the state a new conversation starts in.
func Initial() State {
	return State{Step: StepGreeting, Slots: map[string]string{}}
}

// Slot returns the value stored under key, or "" when absent.
func (s State) Slot(key string) string {
	return s.Slots[key]
}

// With returns a copy of s whose slots include key=value.
func (s State) With(key, value string) State {
	slots := s.cloneSlots()
	slots[key] = value
	return State{Step: s.Step, Slots: slots}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return State{Step: s.Step, Slots: s.cloneSlots()}
}

func (s State) cloneSlots() map[string]string {
	slots := make(map[string]string, len(s.Slots)+1)
	for k, v := range s.Slots {
		slots[k] = v
	}
	return slots
}

// Output is the result of one turn.
type Output struct {
	Message   string   `json:"message"`
	Options   []string `json:"options"`
	NextState State    `json:"next_state"`
}
