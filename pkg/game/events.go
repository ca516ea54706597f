package game

// EventType identifies a game event
type EventType int

const (
	EventStateChanged EventType = iota
	EventGameOver
	EventFoodEaten
	EventPowerUpCollected
	EventPowerUpExpired
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "stateChanged"
	case EventGameOver:
		return "gameOver"
	case EventFoodEaten:
		return "foodEaten"
	case EventPowerUpCollected:
		return "powerUpCollected"
	case EventPowerUpExpired:
		return "powerUpExpired"
	default:
		return "unknown"
	}
}

// Event carries the payload of one notification. Only the fields relevant
// to Type are set.
type Event struct {
	Type       EventType
	Snapshot   Snapshot    // StateChanged, GameOver
	Score      int         // FoodEaten, GameOver
	Multiplier int         // FoodEaten
	Kind       PowerUpKind // PowerUpCollected, PowerUpExpired
	Reason     EndReason   // GameOver
}

// Handler receives events synchronously on the tick path. Handlers that do
// slow work must hand it off.
type Handler func(Event)

// EventBus fans events out to subscribers in subscription order
type EventBus struct {
	handlers map[EventType][]Handler
}

// NewEventBus creates an empty bus
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers fn for events of type t
func (eb *EventBus) Subscribe(t EventType, fn Handler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

// Emit delivers e to every handler subscribed to e.Type
func (eb *EventBus) Emit(e Event) {
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}
