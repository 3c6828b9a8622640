// Package persona defines council member identities: the system prompt each
// member argues from, a thread-safe registry of known members, and keyword
// based panel selection for topics that do not name a panel explicitly.
package persona

import "fmt"

// Persona describes a council member. Name doubles as the proposer id on
// votes; SystemPrompt shapes the member's reasoning; Capabilities are
// free-form tags carried through from preset files.
type Persona struct {
	Name         string   `json:"name" yaml:"name"`
	SystemPrompt string   `json:"system_prompt" yaml:"system_prompt"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

// Generic returns a fallback persona for a name with no registered entry,
// so convening with an unknown member name still produces a usable panel.
func Generic(name string) Persona {
	return Persona{
		Name:         name,
		SystemPrompt: fmt.Sprintf("You are %s, a helpful advisor.", name),
		Capabilities: []string{"generalist"},
	}
}
