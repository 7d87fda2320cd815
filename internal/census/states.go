package census

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed states.yaml
var statesYAML []byte

var stateNames = mustLoadStateNames()

func mustLoadStateNames() map[int]string {
	var names map[int]string
	if err := yaml.Unmarshal(statesYAML, &names); err != nil {
		panic(fmt.Sprintf("census: embedded states.yaml: %v", err))
	}
	return names
}

// StateName returns the display name for a GSA state code. Codes outside the
// table fall back to "state <code>" so titles stay printable; name lookup is
// cosmetic and never a validity check.
func StateName(code int) string {
	if name, ok := stateNames[code]; ok {
		return name
	}
	return fmt.Sprintf("state %d", code)
}
