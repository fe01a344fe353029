package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rowanhart/tasknest/internal/config"
	"github.com/rowanhart/tasknest/internal/services/auth"
	"github.com/rowanhart/tasknest/internal/store"
)

// userRow is the per-account view printed by `users list`
type userRow struct {
	ID        string `yaml:"id"`
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	IsAdmin   bool   `yaml:"is_admin"`
	TaskCount int    `yaml:"task_count"`
	CreatedAt string `yaml:"created_at"`
}

// NewUsersCmd creates the users command group
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersResetPasswordCmd())
	cmd.AddCommand(newUsersDeleteCmd())
	cmd.AddCommand(newUsersPromoteCmd())
	return cmd
}

// openStore connects using the standard configuration and returns the
// repositories plus a cleanup func
func openStore() (*store.UserRepository, *store.TaskRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := store.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return store.NewUserRepository(db), store.NewTaskRepository(db), cleanup, nil
}

func newUsersListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all accounts with task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, tasks, cleanup, err := openStore()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			accounts, err := users.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			counts, err := tasks.CountByOwner(ctx)
			if err != nil {
				return fmt.Errorf("failed to count tasks: %w", err)
			}

			rows := make([]userRow, 0, len(accounts))
			for _, u := range accounts {
				rows = append(rows, userRow{
					ID:        u.ID.String(),
					Username:  u.Username,
					Email:     u.Email,
					IsAdmin:   u.IsAdmin,
					TaskCount: counts[u.ID],
					CreatedAt: u.CreatedAt.Format("2006-01-02 15:04"),
				})
			}

			if output == "yaml" {
				out, err := yaml.Marshal(rows)
				if err != nil {
					return fmt.Errorf("failed to marshal users: %w", err)
				}
				fmt.Print(string(out))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tADMIN\tTASKS\tCREATED")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%s\n",
					row.ID, row.Username, row.Email, row.IsAdmin, row.TaskCount, row.CreatedAt)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table or yaml")
	return cmd
}

func newUsersResetPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <user-id>",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			users, _, cleanup, err := openStore()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := users.UpdatePassword(context.Background(), id, hash); err != nil {
				return fmt.Errorf("failed to reset password: %w", err)
			}

			fmt.Printf("Password reset for user %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "New password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete an account and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}

			users, _, cleanup, err := openStore()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := users.Delete(context.Background(), id); err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}

			fmt.Printf("Deleted user %s\n", id)
			return nil
		},
	}

	return cmd
}

func newUsersPromoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote <user-id>",
		Short: "Grant admin privileges to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}

			users, _, cleanup, err := openStore()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := users.SetAdmin(context.Background(), id, true); err != nil {
				return fmt.Errorf("failed to promote user: %w", err)
			}

			fmt.Printf("User %s is now an admin\n", id)
			return nil
		},
	}

	return cmd
}
