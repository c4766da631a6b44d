// cmd/admissionctl/process.go
package main

import (
	"encoding/json"
	"fmt"

	"admission-workers/internal/common/camunda"

	"github.com/spf13/cobra"
)

func startProcessCmd() *cobra.Command {
	var (
		vars     map[string]string
		jsonVars string
	)

	cmd := &cobra.Command{
		Use:   "start-process <bpmn-process-id>",
		Short: "Start an admission process instance on Zeebe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variables, err := processVariables(vars, jsonVars)
			if err != nil {
				return err
			}

			client, err := camunda.NewClient(camunda.ConfigFrom(appCfg.Camunda))
			if err != nil {
				return err
			}
			defer client.Close()

			key, err := client.StartProcess(cmd.Context(), args[0], variables)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "started %s: process instance %d\n", args[0], key)
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&vars, "var", nil, "string variable as key=value (repeatable)")
	cmd.Flags().StringVar(&jsonVars, "vars-json", "", "variables as a JSON object")
	return cmd
}

// processVariables merges --vars-json with --var; --var wins on conflict.
func processVariables(vars map[string]string, jsonVars string) (map[string]interface{}, error) {
	variables := map[string]interface{}{}
	if jsonVars != "" {
		if err := json.Unmarshal([]byte(jsonVars), &variables); err != nil {
			return nil, fmt.Errorf("--vars-json: %w", err)
		}
	}
	for k, v := range vars {
		variables[k] = v
	}
	return variables, nil
}
