package parsing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/proposal-builder/internal/types"
)

// rawRequirement accepts string or numeric ids from the model.
type rawRequirement struct {
	ID   json.RawMessage `json:"id"`
	Text string          `json:"text"`
}

// NormalizeRequirements assigns REQ-<position> to requirements without an id
// and makes ids unique by suffixing repeats with -2, -3, ...
func NormalizeRequirements(raw []rawRequirement) []types.Requirement {
	reqs := make([]types.Requirement, 0, len(raw))
	seen := make(map[string]int, len(raw))

	for i, r := range raw {
		id := requirementID(r.ID)
		if id == "" {
			id = fmt.Sprintf("REQ-%d", i+1)
		}

		seen[id]++
		if n := seen[id]; n > 1 {
			unique := fmt.Sprintf("%s-%d", id, n)
			for seen[unique] > 0 {
				n++
				unique = fmt.Sprintf("%s-%d", id, n)
			}
			seen[id] = n
			seen[unique]++
			id = unique
		}

		reqs = append(reqs, types.Requirement{
			ID:   id,
			Text: strings.TrimSpace(r.Text),
		})
	}

	return reqs
}

// requirementID renders a JSON id (string, number or null) as a trimmed string.
func requirementID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.TrimSpace(string(raw))
}
