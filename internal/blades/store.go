package blades

import (
	"encoding/json"
	"fmt"

	"github.com/printdesk/printdesk/internal/shared"
)

const sessionKey = "blade_stack"

// Store persists the panel stack in the caller's session, keeping the state
// session-scoped instead of process-global. Mutations happen strictly
// load → mutate → save within one request, so no extra locking is needed
// beyond what the session store already provides.
type Store struct{}

// Load restores the stack from the session. A missing or corrupt value
// yields an empty stack; UI state is not worth failing a request over.
func (Store) Load(sess *shared.Session) Stack {
	var stack Stack
	raw := sess.Get(sessionKey)
	if raw == "" {
		return stack
	}
	if err := json.Unmarshal([]byte(raw), &stack); err != nil {
		return Stack{}
	}
	return stack
}

// Save writes the stack back to the session.
func (Store) Save(sess *shared.Session, stack Stack) error {
	data, err := json.Marshal(stack)
	if err != nil {
		return fmt.Errorf("encode blade stack: %w", err)
	}
	sess.Set(sessionKey, string(data))
	return nil
}
