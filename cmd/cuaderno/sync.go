package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jortega/cuaderno/internal/remote"
	"github.com/jortega/cuaderno/internal/storage"
	"github.com/jortega/cuaderno/internal/syncer"
)

func loginCommand() *cobra.Command {
	var register bool
	var displayName string

	cmd := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Sign in to the sync server and store the session token",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			password, err := readPassword()
			if err != nil {
				return err
			}

			client := remote.NewClient(a.cfg.ServerURL, nil)
			creds := remote.Credentials{
				Email:       args[0],
				DisplayName: displayName,
				Password:    password,
			}

			var session *remote.Session
			if register {
				session, err = client.Register(ctx, creds)
			} else {
				session, err = client.Login(ctx, creds)
			}
			if err != nil {
				return err
			}

			if err := a.store.Set(ctx, storage.KeyAuthToken, session.Token); err != nil {
				return fmt.Errorf("failed to store session token: %w", err)
			}
			if err := a.sess.SignIn(session.Token); err != nil {
				return fmt.Errorf("server returned an unusable token: %w", err)
			}

			fmt.Printf("signed in as %s\n", session.Email)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&register, "register", false, "create the account before signing in")
	cmd.Flags().StringVar(&displayName, "name", "", "display name when registering")
	return cmd
}

func logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			if err := a.store.Delete(ctx, storage.KeyAuthToken); err != nil {
				return fmt.Errorf("failed to discard session token: %w", err)
			}
			a.sess.SignOut()
			fmt.Println("signed out")
			return nil
		}),
	}
}

func syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile with the sync server and upload local changes",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			if a.sess.CurrentUser() == "" {
				return fmt.Errorf("not signed in, run 'cuaderno login' first")
			}

			client := remote.NewClient(a.cfg.ServerURL, a.sess.Token)
			engine := syncer.New(syncer.Options{
				Local:    a.store,
				Remote:   client,
				Identity: a.sess,
				Roster:   a.model,
				Logger:   slog.Default(),
			})
			defer engine.Close()

			engine.Start(ctx)
			engine.Flush(ctx)

			fmt.Printf("synced, last update %s\n", formatMillis(engine.LastSynced()))
			return nil
		}),
	}
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and last sync time",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			fmt.Printf("server: %s\n", a.cfg.ServerURL)
			if user := a.sess.CurrentUser(); user != "" {
				fmt.Printf("signed in as user %s\n", user)
			} else {
				fmt.Println("signed out")
			}

			raw, ok, err := a.store.Get(ctx, storage.KeyLastSynced)
			if err != nil || !ok {
				fmt.Println("never synced")
				return nil
			}
			ts, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				fmt.Println("never synced")
				return nil
			}
			fmt.Printf("last synced %s\n", formatMillis(ts))
			return nil
		}),
	}
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func formatMillis(ts int64) string {
	if ts == 0 {
		return "never"
	}
	return time.UnixMilli(ts).Format(time.RFC3339)
}
