// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/okazmin/vaultpipe/internal/index"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Query the knowledge index (stats, graph, orphans, related, find)",
	Long: `Index reads the JSON knowledge index maintained by process and answers
queries about it: aggregate statistics, a node/edge graph export, notes
without links, similarity-ranked neighbours, backlinks, and lookups by
tag or topic.`,
}

// openIndex loads the snapshot configured under vault.index_path.
func openIndex() (*index.Index, error) {
	return index.Open(viper.GetString("vault.index_path"))
}

// --- stats subcommand ---

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate knowledge graph statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}

		s := ix.Summarize()
		fmt.Printf("Files:         %d\n", s.TotalFiles)
		fmt.Printf("Related links: %d\n", s.TotalLinks)
		fmt.Printf("Unique tags:   %d\n", s.UniqueTags)
		fmt.Printf("Unique topics: %d\n", s.UniqueTopics)
		return nil
	},
}

// --- graph subcommand ---

var indexGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the knowledge graph as JSON nodes and edges",
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ix.ExportGraph())
	},
}

// --- orphans subcommand ---

var indexOrphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List notes with no incoming or outgoing links",
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}

		orphans := ix.Orphans()
		if len(orphans) == 0 {
			fmt.Println("No orphaned notes.")
			return nil
		}
		for _, name := range orphans {
			fmt.Println(name)
		}
		return nil
	},
}

// --- related subcommand ---

var indexRelatedCmd = &cobra.Command{
	Use:   "related [note-file]",
	Short: "Rank notes related to the given note by similarity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		minScore, _ := cmd.Flags().GetFloat64("min-score")

		ix, err := openIndex()
		if err != nil {
			return err
		}
		if _, ok := ix.GetFileInfo(args[0]); !ok {
			return fmt.Errorf("note %s not in index", args[0])
		}

		matches := ix.FindRelated(args[0], limit, minScore)
		if len(matches) == 0 {
			fmt.Println("No related notes.")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%.2f  %s\n", m.Score, m.Filename)
		}
		return nil
	},
}

// --- backlinks subcommand ---

var indexBacklinksCmd = &cobra.Command{
	Use:   "backlinks [note-file]",
	Short: "List notes that link to the given note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}

		backlinks := ix.GetBacklinks(args[0])
		if len(backlinks) == 0 {
			fmt.Println("No backlinks.")
			return nil
		}
		for _, name := range backlinks {
			fmt.Println(name)
		}
		return nil
	},
}

// --- find subcommand ---

var indexFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find notes by tag or topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")
		topic, _ := cmd.Flags().GetString("topic")
		if (tag == "") == (topic == "") {
			return fmt.Errorf("exactly one of --tag or --topic is required")
		}

		ix, err := openIndex()
		if err != nil {
			return err
		}

		var names []string
		if tag != "" {
			names = ix.FindByTag(tag)
		} else {
			names = ix.FindByTopic(topic)
		}

		if len(names) == 0 {
			fmt.Println("No matching notes.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	indexRelatedCmd.Flags().Int("limit", 5, "maximum matches")
	indexRelatedCmd.Flags().Float64("min-score", 0.3, "similarity floor")

	indexFindCmd.Flags().String("tag", "", "tag to look up")
	indexFindCmd.Flags().String("topic", "", "topic to look up")

	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexGraphCmd)
	indexCmd.AddCommand(indexOrphansCmd)
	indexCmd.AddCommand(indexRelatedCmd)
	indexCmd.AddCommand(indexBacklinksCmd)
	indexCmd.AddCommand(indexFindCmd)

	rootCmd.AddCommand(indexCmd)
}
