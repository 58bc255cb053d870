package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/sectiongest/internal/chunker"
	"github.com/dgallion1/sectiongest/internal/parser"
	"github.com/dgallion1/sectiongest/internal/section"
)

var (
	grammarFile string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "sectionchunk",
	Short: "Split numbered-heading documents into lineage-annotated chunks",
	Long: `sectionchunk finds dotted section titles such as "1.2.3 Title" in a document,
builds the section tree and prints bounded chunks that each start with their
section lineage.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&grammarFile, "grammar", "g", "", "YAML section grammar file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log tree placement decisions")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadGrammar(log *slog.Logger) (*section.Grammar, error) {
	if grammarFile == "" {
		return section.DefaultGrammar(), nil
	}
	g, err := section.LoadGrammar(grammarFile)
	if err != nil {
		return nil, err
	}
	log.Info("grammar loaded", "name", g.Name, "path", grammarFile)
	return g, nil
}

func newSplitter(log *slog.Logger, maxWords int) (*chunker.Splitter, error) {
	g, err := loadGrammar(log)
	if err != nil {
		return nil, err
	}
	return chunker.New(
		chunker.WithMaxWords(maxWords),
		chunker.WithGrammar(g),
		chunker.WithLogger(log),
	), nil
}

func readDocument(path string) (*parser.Document, error) {
	p, err := parser.ForFile(path, true)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := p.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
