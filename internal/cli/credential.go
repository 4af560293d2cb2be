package cli

import (
	"bufio"
	"fmt"
	"strings"

	"resumegrade/internal/ai"
	"resumegrade/internal/app"
	"resumegrade/internal/credential"
	"resumegrade/internal/errors"

	"github.com/spf13/cobra"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage the stored AI provider API key",
	Long: `Manage the API key used for reviews. The key is stored in a local file
(credential.storePath) and shared with the browser view of 'serve'.`,
}

var credentialSetCmd = &cobra.Command{
	Use:   "set [api-key]",
	Short: "Validate and store an API key (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCredentialSet,
}

var credentialClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE:  runCredentialClear,
}

var credentialStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an API key is available",
	Args:  cobra.NoArgs,
	RunE:  runCredentialStatus,
}

func init() {
	credentialCmd.AddCommand(credentialSetCmd)
	credentialCmd.AddCommand(credentialClearCmd)
	credentialCmd.AddCommand(credentialStatusCmd)
}

// credentialController opens the store behind a controller so the CLI applies
// the same input rules as the modal
func credentialController(cmd *cobra.Command) (*app.Controller, *credential.FileStore, error) {
	cfg, logger, err := fromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	store, err := openCredentialStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	controller := app.New(app.Options{
		Credentials: store,
		KeyFormat:   ai.KeyFormatFor(cfg.AI.Provider),
		Logger:      logger,
	})
	return controller, store, nil
}

func runCredentialSet(cmd *cobra.Command, args []string) error {
	controller, store, err := credentialController(cmd)
	if err != nil {
		return err
	}

	var input string
	if len(args) == 1 {
		input = args[0]
	} else {
		fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		input = strings.TrimSpace(line)
	}

	if err := controller.SaveCredential(input); err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), app.MsgKeySaved)
	fmt.Fprintf(cmd.OutOrStdout(), "Stored in %s\n", store.Path())
	return nil
}

func runCredentialClear(cmd *cobra.Command, args []string) error {
	controller, store, err := credentialController(cmd)
	if err != nil {
		return err
	}
	if err := controller.ClearCredential(); err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "API key removed from %s\n", store.Path())
	if store.Has() {
		fmt.Fprintln(cmd.OutOrStdout(), "A default key from the configuration is still in effect.")
	}
	return nil
}

func runCredentialStatus(cmd *cobra.Command, args []string) error {
	_, store, err := credentialController(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if key, ok := store.Get(); ok {
		fmt.Fprintf(out, "API Key Set (%s)\n", credential.Mask(key))
	} else {
		fmt.Fprintln(out, "API Key (not configured)")
	}
	fmt.Fprintf(out, "Store: %s\n", store.Path())
	return nil
}
