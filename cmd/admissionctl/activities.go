// cmd/admissionctl/activities.go
package main

import (
	"fmt"
	"io"
	"sort"

	"admission-workers/internal/common/config"
	"admission-workers/pkg/registry"

	"github.com/spf13/cobra"
)

func activitiesCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "activities",
		Short: "List the service task catalog and check it against the worker config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			return printActivities(cmd.OutOrStdout(), reg, appCfg.Workers)
		},
	}

	cmd.Flags().StringVar(&path, "registry", "configs/activity-registry.json", "path to the activity registry")
	return cmd
}

func printActivities(out io.Writer, reg *registry.ActivityRegistry, workers map[string]config.WorkerConfig) error {
	t := newTable(out, "Task type", "Name", "Timeout", "Retries", "Worker")
	for _, a := range reg.Activities {
		state := errorStyle.Render("not configured")
		if w, ok := workers[a.TaskType]; ok {
			state = "disabled"
			if w.Enabled {
				state = fmt.Sprintf("enabled (max %d jobs)", w.MaxJobsActive)
			}
		}
		t.row(a.TaskType, a.DisplayName, a.Timeout, a.Retries, state)
	}
	if err := t.flush(); err != nil {
		return err
	}

	known := make([]string, 0, len(workers))
	for taskType := range workers {
		known = append(known, taskType)
	}
	sort.Strings(known)
	return reg.Validate(known)
}
