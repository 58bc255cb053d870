package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/sectiongest/internal/chunker"
	"github.com/dgallion1/sectiongest/internal/doctree"
)

var (
	splitMaxWords int
	splitOutDir   string
	splitTree     bool
	splitJSON     bool
)

var splitCmd = &cobra.Command{
	Use:   "split FILE",
	Short: "Split a document into chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		splitter, err := newSplitter(log, splitMaxWords)
		if err != nil {
			return err
		}
		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}
		chunks, forest, err := splitter.SplitWithTree(doc.Text)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if splitOutDir != "" {
			if err := writeChunkFiles(splitOutDir, chunks); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %d chunks to %s\n", len(chunks), splitOutDir)
			return nil
		}

		if splitJSON {
			result := struct {
				Title  string           `json:"title"`
				Chunks []doctree.Chunk  `json:"chunks"`
				Tree   *doctree.DocTree `json:"tree,omitempty"`
			}{Title: doc.Title, Chunks: chunks}
			if splitTree {
				result.Tree = forest.DocTree(doc.Title)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		if splitTree {
			printOutline(out, forest)
			fmt.Fprintln(out)
		}
		printChunks(out, chunks)
		return nil
	},
}

func init() {
	splitCmd.Flags().IntVarP(&splitMaxWords, "max-words", "n", chunker.DefaultMaxWords, "Maximum words per chunk")
	splitCmd.Flags().StringVarP(&splitOutDir, "out", "o", "", "Write one file per chunk into this directory")
	splitCmd.Flags().BoolVar(&splitTree, "tree", false, "Include the section tree")
	splitCmd.Flags().BoolVar(&splitJSON, "json", false, "Print chunks as JSON")
	rootCmd.AddCommand(splitCmd)
}

func printChunks(w io.Writer, chunks []doctree.Chunk) {
	for i, c := range chunks {
		if i > 0 {
			fmt.Fprintln(w, "---")
		}
		fmt.Fprint(w, c.Text)
		if len(c.Text) > 0 && c.Text[len(c.Text)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
}

func writeChunkFiles(dir string, chunks []doctree.Chunk) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, c := range chunks {
		path := filepath.Join(dir, fmt.Sprintf("chunk_%04d.txt", c.Index))
		if err := os.WriteFile(path, []byte(c.Text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
