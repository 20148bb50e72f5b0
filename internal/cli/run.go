package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"sshfleet/internal/config"
	"sshfleet/internal/models"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command>",
		Short: "Run a command on one host, a host list or a group",
		Long: `Run executes a shell command over SSH. Targets come from --hosts or
--group; with neither, the saved default target is used (see "sshfleet target").`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}

	cmd.Flags().String("hosts", "", "Comma-separated hostnames to run on")
	cmd.Flags().StringP("group", "g", "", "Run on every server in this group")
	cmd.Flags().DurationP("timeout", "t", 0, "Per-host command timeout (default from config)")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	hostsFlag, _ := cmd.Flags().GetString("hosts")
	group, _ := cmd.Flags().GetString("group")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	hosts := splitHosts(hostsFlag)
	if len(hosts) > 0 && group != "" {
		return fmt.Errorf("provide either --hosts or --group, not both")
	}

	if len(hosts) == 0 && group == "" {
		target, err := config.NewTargetStore("").Load()
		if err != nil {
			return err
		}
		if target.IsEmpty() {
			return fmt.Errorf("no target: pass --hosts or --group, or set a default with \"sshfleet target set\"")
		}
		group = target.Group
		hosts = target.Hosts
	}

	manager, err := app.newManager(cmd.Context())
	if err != nil {
		return err
	}
	defer manager.Close()

	command := args[0]
	var results map[string]models.CommandResult
	switch {
	case group != "":
		results = manager.ExecuteOnGroup(cmd.Context(), group, command, timeout)
	case len(hosts) == 1:
		result := manager.ExecuteOne(cmd.Context(), hosts[0], command, timeout)
		results = map[string]models.CommandResult{hosts[0]: result}
	default:
		results = manager.ExecuteParallel(cmd.Context(), hosts, command, timeout)
	}

	if group != "" && len(results) == 0 {
		return fmt.Errorf("group %q has no servers", group)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printResultsJSON(cmd, results)
	}
	return printResults(cmd, results)
}

func printResultsJSON(cmd *cobra.Command, results map[string]models.CommandResult) error {
	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return failedCountErr(results)
}

func printResults(cmd *cobra.Command, results map[string]models.CommandResult) error {
	out := cmd.OutOrStdout()

	hostnames := make([]string, 0, len(results))
	for hostname := range results {
		hostnames = append(hostnames, hostname)
	}
	sort.Strings(hostnames)

	for _, hostname := range hostnames {
		result := results[hostname]
		switch {
		case result.Error != "":
			fmt.Fprintf(out, "=== %s (error: %s)\n", hostname, result.Error)
		case result.ReturnCode != 0:
			fmt.Fprintf(out, "=== %s (exit %d, %s)\n", hostname, result.ReturnCode, formatDuration(result.Duration))
		default:
			fmt.Fprintf(out, "=== %s (%s)\n", hostname, formatDuration(result.Duration))
		}
		if result.Stdout != "" {
			fmt.Fprint(out, ensureNewline(result.Stdout))
		}
		if result.Stderr != "" {
			fmt.Fprint(out, ensureNewline(result.Stderr))
		}
	}

	return failedCountErr(results)
}

// failedCountErr turns failed hosts into a non-zero process exit.
func failedCountErr(results map[string]models.CommandResult) error {
	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d hosts failed", failed, len(results))
	}
	return nil
}

func ensureNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}
