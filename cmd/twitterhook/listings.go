package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	twitter "github.com/anatolykoptev/go-twitter-api"
	"github.com/anatolykoptev/go-twitter-api/pagination"
)

var maxPages int

var followersCmd = &cobra.Command{
	Use:   "followers <user-id>",
	Short: "Page through the followers of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("user id %q: %w", args[0], err)
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		cur, err := client.FetchFollowers(cmd.Context(), id)
		if err != nil {
			return err
		}
		return walk(cmd.Context(), cur, func(u *twitter.User) {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t@%s\t%s\n", u.ID, u.Username, u.Name)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Page through recent direct messages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		cur, err := client.FetchMessageHistory(cmd.Context())
		if err != nil {
			return err
		}
		return walk(cmd.Context(), cur, func(m *twitter.DirectMessage) {
			from := strconv.FormatInt(m.SenderID, 10)
			if m.Sender != nil {
				from = "@" + m.Sender.Username
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m.CreatedAt.Format("2006-01-02 15:04"), from, m.Text)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{followersCmd, historyCmd} {
		c.Flags().IntVar(&maxPages, "pages", 0, "stop after this many pages (0 = all)")
	}
}

func newClient() (*twitter.Client, error) {
	clientCfg, err := cfg.clientConfig()
	if err != nil {
		return nil, err
	}
	return twitter.NewClient(clientCfg)
}

// walk prints the current page and every following one.
func walk[T pagination.Item](ctx context.Context, cur *pagination.Cursor[T], emit func(T)) error {
	for page := 1; ; page++ {
		items, err := cur.Content()
		if err != nil {
			return err
		}
		for _, item := range items {
			emit(item)
		}
		if maxPages > 0 && page >= maxPages {
			return nil
		}
		if err := cur.Next(ctx); err != nil {
			if errors.Is(err, pagination.ErrNoPageAvailable) {
				return nil
			}
			return err
		}
	}
}
