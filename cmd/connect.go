// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"tenantforge/cli/internal/connspec"
	apperrors "tenantforge/cli/internal/errors"
	"tenantforge/cli/internal/keychain"
	"tenantforge/cli/internal/logging"
	"tenantforge/cli/internal/sqlexec"
	"tenantforge/cli/internal/terminal"
)

const defaultVerifyTimeout = 10 * time.Second

var (
	connectSources      connectionSources
	connectSavePassword bool
)

// connectCmd verifies that every connection can be opened.
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Verify tenant database connections",
	Long: `The connect command opens and closes each connection to check host, credentials
and database without running any SQL. A connection without a password prompts for
one when running in a terminal.

With --project and --save-password, passwords entered at the prompt are stored
in the OS keychain for that project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := connectSources.load()
		if err != nil {
			return err
		}
		if connectSavePassword && connectSources.projectID == 0 {
			return fmt.Errorf("--save-password requires --project")
		}
		dialer, err := newDialer()
		if err != nil {
			return err
		}

		failed := 0
		for _, in := range inputs {
			in = in.WithDefaultSSLMode(cfg.Exec.SSLMode)
			prompted := false
			if in.Password == "" && terminal.IsInteractive() {
				pw, err := terminal.ReadPassword(fmt.Sprintf("Password for %s (%s): ", in.ID, in.User))
				if err != nil {
					return err
				}
				in.Password, prompted = pw, true
			}

			if err := verifyConnection(cmd.Context(), dialer, in); err != nil {
				failed++
				pterm.Error.Printf("%s: %s\n", in.ID, logging.Mask(apperrors.MessageOf(err)))
				continue
			}
			pterm.Success.Printf("%s: connection verified\n", in.ID)

			if prompted && connectSavePassword {
				if err := savePassword(connectSources.projectID, in.ID, in.Password); err != nil {
					pterm.Warning.Printf("%s: password not saved: %v\n", in.ID, err)
				}
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d connections failed verification", failed, len(inputs))
		}
		return nil
	},
}

func verifyConnection(ctx context.Context, dialer *sqlexec.PgxDialer, in connspec.Input) error {
	spec, err := connspec.New(in)
	if err != nil {
		return err
	}
	if dialer.ConnectTimeout == 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultVerifyTimeout)
		defer cancel()
	}

	stop := startInlineSpinner(os.Stdout, "verifying "+spec.ID+" at "+spec.Address(), spinnerFrames, 100*time.Millisecond)
	defer stop()
	return sqlexec.Ping(ctx, dialer, spec)
}

func savePassword(projectID int64, connID, password string) error {
	km, err := keychain.GetManager()
	if err != nil {
		return err
	}
	return km.Set(keychain.ConnectionKey(projectID, connID), password)
}

func init() {
	rootCmd.AddCommand(connectCmd)
	addConnectionFlags(connectCmd, &connectSources)
	connectCmd.Flags().BoolVar(&connectSavePassword, "save-password", false, "Store prompted passwords in the OS keychain for --project")
}
