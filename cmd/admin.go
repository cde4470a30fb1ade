package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/config"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant <username>",
	Short: "Promote an existing user to Admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		svc, cleanup, err := newCommandServices()
		if err != nil {
			return err
		}
		defer cleanup()

		user, err := svc.lifecycle.GrantAdmin(context.Background(), args[0])
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				return fmt.Errorf("user %q not found", args[0])
			}
			return err
		}

		fmt.Printf("user_id: %d\n", user.ID)
		fmt.Printf("username: %s\n", user.Username)
		fmt.Printf("status: %s\n", user.Status)
		return nil
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Account maintenance jobs",
}

var accountFinalizeCmd = &cobra.Command{
	Use:   "finalize-deletes",
	Short: "Delete accounts whose self-delete window has elapsed and prune expired sessions",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		svc, cleanup, err := newCommandServices()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.lifecycle.FinalizeExpired(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("finalized_accounts: %d\n", result.FinalizedAccounts)
		fmt.Printf("pruned_sessions: %d\n", result.PrunedSessions)
		return nil
	},
}

func init() {
	adminCmd.AddCommand(adminGrantCmd)
	accountCmd.AddCommand(accountFinalizeCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(accountCmd)
}

// newCommandServices publishes events inline so a short-lived command does not
// exit before they are sent.
func newCommandServices() (*services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err = configureLogging(cfg); err != nil {
		return nil, nil, err
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	publisher := newPublisher(cfg)

	svc := newServices(db, cfg, publisher, service.WithAsyncRunner(func(task func()) { task() }))
	cleanup := func() {
		_ = publisher.Close()
		_ = db.Close()
	}
	return svc, cleanup, nil
}
