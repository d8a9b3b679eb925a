package cmd

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var hashCost int

var hashpwCmd = &cobra.Command{
	Use:   "hashpw",
	Short: "Generate a bcrypt hash for the admin.password_hash config key",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, "Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		if len(password) < 8 {
			return errors.New("password must be at least 8 characters")
		}

		hash, err := bcrypt.GenerateFromPassword(password, hashCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		fmt.Println(string(hash))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashpwCmd)
	hashpwCmd.Flags().IntVar(&hashCost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
}
