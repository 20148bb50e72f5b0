package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sshfleet/internal/models"
)

func newServersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage the server inventory",
	}

	cmd.AddCommand(
		newServersAddCmd(),
		newServersListCmd(),
		newServersRemoveCmd(),
		newServersGroupsCmd(),
	)

	return cmd
}

func newServersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <hostname>",
		Short: "Add or update a server",
		Args:  cobra.ExactArgs(1),
		RunE:  runServersAdd,
	}

	cmd.Flags().StringP("user", "u", "", "SSH username")
	cmd.Flags().IntP("port", "p", models.DefaultPort, "SSH port")
	cmd.Flags().String("password", "", "SSH password")
	cmd.Flags().Bool("ask-password", false, "Prompt for the SSH password")
	cmd.Flags().StringP("key", "k", "", "Private key path")
	cmd.Flags().String("passphrase", "", "Private key passphrase")
	cmd.Flags().StringP("group", "g", models.DefaultGroup, "Server group")
	cmd.Flags().String("description", "", "Free-form description")
	cmd.Flags().Bool("disabled", false, "Register the server without making it available")

	return cmd
}

func runServersAdd(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	user, _ := cmd.Flags().GetString("user")
	port, _ := cmd.Flags().GetInt("port")
	password, _ := cmd.Flags().GetString("password")
	askPassword, _ := cmd.Flags().GetBool("ask-password")
	keyPath, _ := cmd.Flags().GetString("key")
	passphrase, _ := cmd.Flags().GetString("passphrase")
	group, _ := cmd.Flags().GetString("group")
	description, _ := cmd.Flags().GetString("description")
	disabled, _ := cmd.Flags().GetBool("disabled")

	if askPassword {
		password, err = promptPassword(cmd, fmt.Sprintf("Password for %s@%s: ", user, args[0]))
		if err != nil {
			return err
		}
	}

	server := models.ServerInfo{
		Hostname:             args[0],
		Username:             user,
		Port:                 port,
		Password:             password,
		PrivateKeyPath:       keyPath,
		PrivateKeyPassphrase: passphrase,
		Group:                group,
		Description:          description,
		Enabled:              !disabled,
	}

	if err := app.repo.Save(cmd.Context(), server); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (group %s)\n", server.Hostname, server.Group)
	return nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--ask-password requires an interactive terminal")
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

func newServersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inventory servers",
		Args:  cobra.NoArgs,
		RunE:  runServersList,
	}

	cmd.Flags().StringP("group", "g", "", "Only list servers in this group")

	return cmd
}

func runServersList(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	servers, err := app.repo.List(cmd.Context())
	if err != nil {
		return err
	}

	if group, _ := cmd.Flags().GetString("group"); group != "" {
		filtered := servers[:0]
		for _, server := range servers {
			if server.Group == group {
				filtered = append(filtered, server)
			}
		}
		servers = filtered
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		payload, err := json.MarshalIndent(servers, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	if len(servers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No servers registered.")
		return nil
	}

	rows := make([][]string, 0, len(servers))
	for _, server := range servers {
		rows = append(rows, []string{
			server.Hostname,
			server.Username,
			strconv.Itoa(server.Port),
			server.Group,
			formatAuth(server.PrivateKeyPath),
			formatYesNo(server.Enabled),
			server.Description,
		})
	}
	return writeTable(cmd.OutOrStdout(),
		[]string{"HOSTNAME", "USER", "PORT", "GROUP", "AUTH", "ENABLED", "DESCRIPTION"}, rows)
}

func newServersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <hostname>",
		Aliases: []string{"rm"},
		Short:   "Remove a server from the inventory",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.repo.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newServersGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List server groups and their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			servers, err := app.repo.List(cmd.Context())
			if err != nil {
				return err
			}

			sizes := make(map[string]int)
			for _, server := range servers {
				sizes[server.Group]++
			}

			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				payload, err := json.MarshalIndent(sizes, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(payload))
				return nil
			}

			names := make([]string, 0, len(sizes))
			for name := range sizes {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, []string{name, strconv.Itoa(sizes[name])})
			}
			return writeTable(cmd.OutOrStdout(), []string{"GROUP", "SERVERS"}, rows)
		},
	}
}
