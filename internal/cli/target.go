package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sshfleet/internal/config"
)

func newTargetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Manage the default target for run",
	}

	cmd.AddCommand(
		newTargetSetCmd(),
		newTargetShowCmd(),
		newTargetClearCmd(),
	)

	return cmd
}

func newTargetSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the default target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			group, _ := cmd.Flags().GetString("group")
			hostsFlag, _ := cmd.Flags().GetString("hosts")
			hosts := splitHosts(hostsFlag)

			if (group == "") == (len(hosts) == 0) {
				return fmt.Errorf("provide exactly one of --group or --hosts")
			}

			store := config.NewTargetStore("")
			target, err := store.Load()
			if err != nil {
				return err
			}
			if group != "" {
				target.SetGroup(group)
			} else {
				target.SetHosts(hosts)
			}
			if err := store.Save(target); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Default target: %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringP("group", "g", "", "Target a server group")
	cmd.Flags().String("hosts", "", "Target a comma-separated host list")

	return cmd
}

func newTargetShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the default target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.NewTargetStore("").Load()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}
}

func newTargetClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the default target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.NewTargetStore("").Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Default target cleared.")
			return nil
		},
	}
}
