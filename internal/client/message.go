package client

// Push topics with client-side behavior. Any other topic is handed to the
// application verbatim.
const (
	// TopicYourTurn grants this client permission to act. It updates the
	// turn flag and never appears in the push queue.
	TopicYourTurn = "yourturn"

	// TopicClearCards tells the client to drop its hand and stage.
	TopicClearCards = "clearcards"

	// TopicNewTrick announces cards played to the table.
	TopicNewTrick = "newtrick"
)

// PushMessage is one server-initiated notification as handed to the
// application layer.
type PushMessage struct {
	Topic   string
	Payload string

	// Cards holds the decoded card list for topics that carry one
	// (currently newtrick). Nil otherwise.
	Cards []string
}
