package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Book management commands",
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all books",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		books, err := a.orch.ListBooks(cmd.Context(), a.owner)
		if err != nil {
			return err
		}
		return printOutput(books)
	},
}

var booksShowCmd = &cobra.Command{
	Use:   "show <book-id>",
	Short: "Show a book's record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.orch.GetBook(cmd.Context(), a.owner, args[0])
		if err != nil {
			return err
		}
		return printOutput(b)
	},
}

var booksDeleteCmd = &cobra.Command{
	Use:   "delete <book-id>",
	Short: "Delete a book and its stored renderings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.orch.DeleteBook(cmd.Context(), a.owner, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted book %s\n", args[0])
		return nil
	},
}

func init() {
	booksCmd.AddCommand(booksListCmd)
	booksCmd.AddCommand(booksShowCmd)
	booksCmd.AddCommand(booksDeleteCmd)
	rootCmd.AddCommand(booksCmd)
}
