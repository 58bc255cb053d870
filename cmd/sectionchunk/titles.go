package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/sectiongest/internal/section"
)

var titlesCmd = &cobra.Command{
	Use:   "titles FILE",
	Short: "Print the section tree of a document",
	Long: `Print the valid section titles of a document as an indented outline.
Titles that could not be placed in the tree are listed after it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		splitter, err := newSplitter(log, 0)
		if err != nil {
			return err
		}
		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}
		forest, err := splitter.Tree(doc.Text)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printOutline(out, forest)
		for _, t := range forest.Discarded {
			fmt.Fprintf(cmd.ErrOrStderr(), "discarded: %s\n", t)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(titlesCmd)
}

func printOutline(w io.Writer, f *section.Forest) {
	var walk func(id section.NodeID)
	walk = func(id section.NodeID) {
		n := f.Node(id)
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", n.Ident.Depth()-1), n.Title)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range f.Roots {
		walk(r)
	}
}
