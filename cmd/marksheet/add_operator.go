package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marksheetIA/marksheet-ocr-service/internal/auth"
	"github.com/marksheetIA/marksheet-ocr-service/internal/db"
)

// NewAddOperatorCmd creates the add-operator command.
func NewAddOperatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-operator [email]",
		Short: "Create an API operator account in the archive database",
		Long: `add-operator stores a new operator who can log in to the API.
The database is taken from DATABASE_URL or the DB_* variables, and the
password is read from the first line of stdin.

Examples:
  echo 's3cret' | marksheet add-operator registrar@college.edu --name "Exam Cell"`,
		Args: cobra.ExactArgs(1),
		RunE: runAddOperatorCmd,
	}

	cmd.Flags().StringP("name", "n", "", "Display name")
	cmd.Flags().String("role", "operator", "Role stored in issued tokens")

	return cmd
}

// runAddOperatorCmd executes the add-operator command.
func runAddOperatorCmd(cmd *cobra.Command, args []string) error {
	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	role, err := cmd.Flags().GetString("role")
	if err != nil {
		return err
	}

	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if err := db.Init(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	op := &db.Operator{
		Email:        strings.TrimSpace(args[0]),
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	}
	if err := db.CreateOperator(ctx, op); err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "operator %s created (id %s)\n", op.Email, op.ID)
	return nil
}

// readPassword reads the first line of stdin
func readPassword(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
