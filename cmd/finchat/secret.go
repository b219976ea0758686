package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/finchat/internal/infra/config"
)

func newSecretCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage backend credentials in the OS keyring",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <" + strings.Join(config.SecretKeys(), "|") + ">",
		Short: "Store a credential read from stdin; picked up when FINCHAT_KEYRING=1",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			value := strings.TrimSpace(line)
			if value == "" {
				if err != nil {
					return fmt.Errorf("read secret: %w", err)
				}
				return usageError{errors.New("empty secret")}
			}
			store, err := config.OpenKeyring()
			if err != nil {
				return err
			}
			if err := store.Set(args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "stored %s in keyring %q\n", args[0], config.KeyringService) //nolint:errcheck
			return nil
		},
	})
	return cmd
}
