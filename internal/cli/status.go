package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"sshfleet/internal/models"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [hostname]",
		Short: "Probe servers for reachability",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	manager, err := app.newManager(cmd.Context())
	if err != nil {
		return err
	}
	defer manager.Close()

	var statuses map[string]models.ServerStatus
	if len(args) == 1 {
		statuses = map[string]models.ServerStatus{
			args[0]: manager.CheckStatus(cmd.Context(), args[0]),
		}
	} else {
		statuses = manager.CheckAll(cmd.Context())
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		payload, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	if len(statuses) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No servers registered.")
		return nil
	}

	hostnames := make([]string, 0, len(statuses))
	for hostname := range statuses {
		hostnames = append(hostnames, hostname)
	}
	sort.Strings(hostnames)

	rows := make([][]string, 0, len(hostnames))
	offline := 0
	for _, hostname := range hostnames {
		status := statuses[hostname]
		state := "online"
		detail := formatDuration(status.ResponseTime)
		if !status.Online {
			offline++
			state = "offline"
			detail = status.Error
		}
		rows = append(rows, []string{hostname, state, detail})
	}
	if err := writeTable(cmd.OutOrStdout(), []string{"HOSTNAME", "STATUS", "DETAIL"}, rows); err != nil {
		return err
	}

	if offline > 0 {
		return fmt.Errorf("%d of %d hosts offline", offline, len(statuses))
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show inventory and connection statistics",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	manager, err := app.newManager(cmd.Context())
	if err != nil {
		return err
	}
	defer manager.Close()

	stats := manager.Statistics()

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		payload, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Servers:            %d (%d enabled)\n", stats.TotalServers, stats.EnabledServers)
	fmt.Fprintf(out, "Active connections: %d\n", stats.ActiveConnections)
	fmt.Fprintf(out, "Groups:             %d\n", stats.TotalGroups)

	if len(stats.Groups) == 0 {
		return nil
	}
	names := make([]string, 0, len(stats.Groups))
	for name := range stats.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(stats.Groups[name])})
	}
	return writeTable(out, []string{"GROUP", "SERVERS"}, rows)
}
