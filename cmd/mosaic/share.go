package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var qrOutput string

var shareCmd = &cobra.Command{
	Use:   "share <record-id>",
	Short: "Issue a capability token granting anonymous access to a record",
	Long: `Issue an unguessable bearer token bound to one record. Anyone
holding the token (typically scanned from the QR code) can fetch the
record's file without authenticating. Tokens outlive the record listing
itself; revoke them explicitly or rely on the configured TTL.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.share.Issue(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(t.Value)
		fmt.Println(a.share.ShareURL(t.Value))
		if !t.ExpiresAt.IsZero() {
			fmt.Printf("expires %s\n", t.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
		}

		if qrOutput != "" {
			png, err := a.share.QRCode(t.Value)
			if err != nil {
				return err
			}
			if err := os.WriteFile(qrOutput, png, 0o644); err != nil {
				return fmt.Errorf("write QR image: %w", err)
			}
			fmt.Printf("QR code written to %s\n", qrOutput)
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <token>",
	Short: "Resolve a capability token to its record's file path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		recordID, err := a.share.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		// The boundary check happens here, at serving time: the token
		// may outlive its record.
		path, err := a.store.ResolveForRead(recordID)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Revoke a capability token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.share.Revoke(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("revoked")
		return nil
	},
}

var pruneTokensCmd = &cobra.Command{
	Use:   "prune-tokens",
	Short: "Remove expired capability tokens from the token store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.share.PruneExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d expired tokens\n", n)
		return nil
	},
}

func init() {
	shareCmd.Flags().StringVarP(&qrOutput, "qr", "q", "", "write a QR code PNG for the share link to this file")
	rootCmd.AddCommand(shareCmd, resolveCmd, revokeCmd, pruneTokensCmd)
}
