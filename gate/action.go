package gate

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionSend covers outgoing mail such as resending a convocation.
	ActionSend Action = "send"
	// ActionPrint covers printable documents.
	ActionPrint Action = "print"
)

// CRUD is the set of actions granted by "manage" style permissions.
var CRUD = []Action{ActionView, ActionList, ActionCreate, ActionUpdate, ActionDelete}
