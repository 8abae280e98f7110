package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/lexiz/internal/mastery"
	"github.com/abhisek/lexiz/internal/store"
)

var addCmd = &cobra.Command{
	Use:   "add <term> <translation>",
	Short: "Add a vocabulary item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		example, _ := cmd.Flags().GetString("example")
		audio, _ := cmd.Flags().GetString("audio")

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		item, err := e.repos.Items().AddItem(cmd.Context(), store.Item{
			Term:        args[0],
			Translation: args[1],
			Example:     example,
			AudioURL:    audio,
		}, time.Now())
		if err != nil {
			return fmt.Errorf("add item: %w", err)
		}
		e.log.Info("item added", zap.String("item_id", item.ID), zap.String("term", item.Term))
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s = %s)\n", item.ID, item.Term, item.Translation)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List vocabulary items with their review state",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		items, err := e.repos.Items().ListItems(ctx)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No items yet. Add one with: lexiz add <term> <translation>")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-20s  %-20s  %-9s  %-4s  %s\n",
			"ID", "Term", "Translation", "Stage", "Int", "Due")
		fmt.Fprintln(out, strings.Repeat("─", 110))
		for _, it := range items {
			rec, err := e.repos.Records().GetRecord(ctx, it.ID)
			if err != nil {
				return fmt.Errorf("get record: %w", err)
			}
			stage, interval, due := "-", "-", "-"
			if rec != nil {
				stage = mastery.Classify(*rec).Label()
				interval = fmt.Sprintf("%d", rec.Interval)
				due = rec.NextReviewDate.Local().Format("2006-01-02")
			}
			fmt.Fprintf(out, "%-36s  %-20s  %-20s  %-9s  %-4s  %s\n",
				it.ID, truncate(it.Term, 20), truncate(it.Translation, 20), stage, interval, due)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a vocabulary item and its review record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		err = e.repos.Items().DeleteItem(cmd.Context(), args[0])
		if errors.Is(err, store.ErrItemNotFound) {
			return fmt.Errorf("item %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show items due for review, most overdue first",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		now := time.Now()
		recs, err := e.repos.Records().GetDueRecords(ctx, now)
		if err != nil {
			return fmt.Errorf("get due records: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d item(s) due\n", len(recs))
		for _, rec := range recs {
			item, err := e.repos.Items().GetItem(ctx, rec.ItemID)
			if err != nil {
				return fmt.Errorf("get item: %w", err)
			}
			fmt.Fprintf(out, "  %-20s  %s\n", truncate(item.Term, 20), rec.DueStatus(now))
		}
		return nil
	},
}

func init() {
	addCmd.Flags().String("example", "", "Example sentence using the term")
	addCmd.Flags().String("audio", "", "URL or path of a pronunciation recording")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
