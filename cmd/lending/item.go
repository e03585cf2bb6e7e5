package main

import (
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
)

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the catalog",
	}

	cmd.AddCommand(newItemAddCmd(a), newItemListCmd(a))

	return cmd
}

func newItemAddCmd(a *app) *cobra.Command {
	var newItem lending.NewItem

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add an item to the catalog",
		Example: `  lending item add --code DDD --title "Learning Domain-Driven Design" --author "Vlad Khononov" --copies 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd.Context(), func(engine sqlengine.Engine) error {
				item, err := engine.AddItem(cmd.Context(), newItem)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), item)
			})
		},
	}

	cmd.Flags().StringVar(&newItem.Code, "code", "", "unique item code")
	cmd.Flags().StringVar(&newItem.Title, "title", "", "title")
	cmd.Flags().StringVar(&newItem.Author, "author", "", "author")
	cmd.Flags().IntVar(&newItem.TotalCopies, "copies", 1, "number of owned copies")

	return cmd
}

func newItemListCmd(a *app) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalog ordered by title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd.Context(), func(engine sqlengine.Engine) error {
				var (
					items []lending.Item
					err   error
				)

				if search != "" {
					items, err = engine.SearchItems(cmd.Context(), search)
				} else {
					items, err = engine.ListItems(cmd.Context())
				}

				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "only items whose title contains this text")

	return cmd
}
