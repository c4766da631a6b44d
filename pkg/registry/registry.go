// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the activity bound to taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Validate checks the entries and cross-checks them against the task types
// the worker manager registers. Every problem is reported.
func (r *ActivityRegistry) Validate(knownTaskTypes []string) error {
	var problems []string
	seen := make(map[string]bool, len(r.Activities))

	for i, a := range r.Activities {
		ref := a.ID
		if ref == "" {
			ref = fmt.Sprintf("activities[%d]", i)
			problems = append(problems, ref+": id is required")
		}
		if a.TaskType == "" {
			problems = append(problems, ref+": taskType is required")
			continue
		}
		if seen[a.TaskType] {
			problems = append(problems, ref+": duplicate taskType "+a.TaskType)
		}
		seen[a.TaskType] = true
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				problems = append(problems, fmt.Sprintf("%s: invalid timeout %q", ref, a.Timeout))
			}
		}
		if a.Retries < 0 {
			problems = append(problems, ref+": retries must not be negative")
		}
	}

	known := make(map[string]bool, len(knownTaskTypes))
	for _, t := range knownTaskTypes {
		known[t] = true
		if !seen[t] {
			problems = append(problems, "worker "+t+" has no registry entry")
		}
	}
	for t := range seen {
		if !known[t] {
			problems = append(problems, "taskType "+t+" has no worker")
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("activity registry has %d problem(s):\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}
