package dispatch

import (
	"fmt"
	"strings"

	"github.com/devkit-labs/devkit/internal/provision"
)

// Action is a user-facing operation on a tool.
type Action int

const (
	Install Action = iota
	Test
	Update
	Check
	Status
	Uninstall
	Help
)

// Actions lists every action in display order.
var Actions = []Action{Install, Test, Update, Check, Status, Uninstall, Help}

func (a Action) String() string {
	switch a {
	case Install:
		return "install"
	case Test:
		return "test"
	case Update:
		return "update"
	case Check:
		return "check"
	case Status:
		return "status"
	case Uninstall:
		return "uninstall"
	case Help:
		return "help"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// MarshalText renders the action by name in JSON output.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ParseAction maps a CLI word to an Action.
func ParseAction(s string) (Action, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, a := range Actions {
		if a.String() == want {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q (valid: %s)", s, ActionNames())
}

// ActionNames returns the valid action words joined for help text.
func ActionNames() string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = a.String()
	}
	return strings.Join(names, "|")
}

// Provisioning maps a state-changing action to its provisioner action.
func (a Action) Provisioning() (provision.Action, bool) {
	switch a {
	case Install:
		return provision.Install, true
	case Update:
		return provision.Update, true
	case Uninstall:
		return provision.Uninstall, true
	case Test, Check, Status, Help:
		return 0, false
	default:
		return 0, false
	}
}
