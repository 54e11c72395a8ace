// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okazmin/vaultpipe/internal/genclient"
	"github.com/okazmin/vaultpipe/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process [input-file]",
	Short: "Process a document into a linked vault note",
	Long: `Process loads a source document, sends it through the generative model
with the given prompt, and writes the resulting note into the vault:
frontmatter is parsed, a stable filename is derived from the main topic,
the note is registered in the knowledge index, and cross-references to
existing notes are inferred.

Inputs already processed with identical content are skipped; edit the
file or remove the ledger to force a rerun.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	promptPath, _ := cmd.Flags().GetString("prompt")
	outputName, _ := cmd.Flags().GetString("output")

	cfg := pipelineConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Generator.ClientID == "" || cfg.Generator.ClientSecret == "" {
		return fmt.Errorf("missing API credentials: provide .secrets/client-id and .secrets/client-secret")
	}

	p, err := pipeline.New(cfg, genclient.New(cfg.Generator))
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.ProcessDocument(context.Background(), args[0], promptPath, outputName)
	if err != nil {
		return err
	}

	if res.Skipped {
		fmt.Printf("Unchanged, skipped: %s\n", res.OutputPath)
		return nil
	}
	fmt.Printf("Note written: %s\n", res.OutputPath)
	return nil
}

func init() {
	processCmd.Flags().String("prompt", "", "prompt file sent ahead of the document (required)")
	processCmd.Flags().String("output", "", "output note name, used when the model reports no main topic")
	processCmd.MarkFlagRequired("prompt")

	rootCmd.AddCommand(processCmd)
}
