package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/credentials"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func updateAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update_auth",
		Short: "Prompt for a username and password and store the Authorization header",
		RunE: func(cmd *cobra.Command, _ []string) error {
			location := globals.auth
			if location == "" {
				location = "file:" + config.DefaultLayout().AuthFile
			}
			store, err := credentials.Open(cmd.Context(), location, globals.root)
			if err != nil {
				return err
			}
			readPassword := func() ([]byte, error) {
				fd := int(os.Stdin.Fd())
				if !term.IsTerminal(fd) {
					return nil, errors.New("password prompt needs a terminal")
				}
				return term.ReadPassword(fd)
			}
			return updateAuth(cmd.Context(), store, cmd.InOrStdin(), cmd.OutOrStdout(), readPassword)
		},
	}
}

func updateAuth(
	ctx context.Context,
	store credentials.Store,
	in io.Reader,
	out io.Writer,
	readPassword func() ([]byte, error),
) error {
	fmt.Fprint(out, "Username: ")
	user, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return errors.New("username is required")
	}
	fmt.Fprint(out, "Password: ")
	password, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, credentials.BasicAuthHeaders(user, string(password))); err != nil {
		return fmt.Errorf("saving credentials to %s: %w", store.Location(), err)
	}
	fmt.Fprintln(out, "Authentication key updated successfully!")
	return nil
}
