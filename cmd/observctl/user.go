package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ZertGraf/observ/internal/repository"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users known to the service",
	Long: `Manage the users projects can be owned by and shared with. A user's
tier decides what it may do: 0 basic, 1 manager, 2 and above administrator.

Examples:
  observctl user list
  observctl user add alice --tier 2`,
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user or change its tier",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var userTier int

func init() {
	userAddCmd.Flags().IntVar(&userTier, "tier", 0, "permission tier")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	if userTier < 0 {
		return fmt.Errorf("--tier must not be negative")
	}

	app, closeFn, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer closeFn()

	if app.Postgres == nil {
		return fmt.Errorf("memory storage is seeded from MEMORY_USERS, use the postgres driver to add users")
	}

	user, err := repository.NewUserRepo(app.Postgres.Pool(), app.Logger).Upsert(cmd.Context(), args[0], userTier)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "user %d %s tier %d\n", user.ID, user.Username, user.Tier)
	return nil
}

func runUserList(cmd *cobra.Command, _ []string) error {
	app, closeFn, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer closeFn()

	users, err := app.UserRepo.List(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tTIER")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", u.ID, u.Username, u.Tier)
	}
	return tw.Flush()
}
