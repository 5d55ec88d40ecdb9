package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marksheetIA/marksheet-ocr-service/internal/auth"
)

// NewHashPasswordCmd creates the hash-password command.
// The printed hash goes into operators.password_hash.
func NewHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash of an operator password",
		Long: `hash-password prints the bcrypt hash to store in the operators table.
Without an argument the password is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				var err error
				if password, err = readPassword(cmd); err != nil {
					return err
				}
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
