// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the vaultpipe CLI: it turns raw
// documents into an interlinked Markdown knowledge vault. Processing
// and index queries are subcommands; configuration comes from a YAML
// file, environment variables, and a secrets directory.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/okazmin/vaultpipe/internal/secrets"
	"github.com/okazmin/vaultpipe/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, the secret value for key
// otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the vaultpipe CLI.
var rootCmd = &cobra.Command{
	Use:   "vaultpipe",
	Short: "Build an interlinked Markdown knowledge vault from documents",
	Long: `vaultpipe processes source documents through a generative model into
structured Markdown notes, maintains a JSON knowledge index over the
vault, and infers wiki-style links between notes.

Use "process" to run a document through the pipeline and the "index"
subcommands to query the resulting knowledge graph.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
				&slog.HandlerOptions{Level: slog.LevelDebug})))
		} else {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
				&slog.HandlerOptions{Level: slog.LevelWarn})))
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			slog.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./vaultpipe.yaml or ~/.config/vaultpipe/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("vaultpipe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "vaultpipe"))
		}
	}

	viper.SetDefault("generator.oauth_url", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth")
	viper.SetDefault("generator.api_url", "https://gigachat.devices.sberbank.ru/api/v1/chat/completions")
	viper.SetDefault("generator.scope", "GIGACHAT_API_PERS")
	viper.SetDefault("generator.model", "GigaChat")
	viper.SetDefault("generator.timeout", "120s")
	viper.SetDefault("vault.dir", "vault")
	viper.SetDefault("vault.index_path", filepath.Join("vault", ".obsidian", "index.json"))
	viper.SetDefault("vault.ledger_path", filepath.Join("vault", ".obsidian", "ledger.db"))

	viper.SetEnvPrefix("VAULTPIPE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the stage configuration from viper and the
// secrets directory.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Generator: types.GeneratorConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("generator.timeout"),
				UserAgent: "vaultpipe/" + version,
			},
			OAuthURL:     viper.GetString("generator.oauth_url"),
			APIURL:       viper.GetString("generator.api_url"),
			Scope:        viper.GetString("generator.scope"),
			Model:        viper.GetString("generator.model"),
			ClientID:     secretDefault("client-id", viper.GetString("generator.client_id")),
			ClientSecret: secretDefault("client-secret", viper.GetString("generator.client_secret")),
			MaxRetries:   viper.GetInt("generator.max_retries"),
		},
		Vault: types.VaultConfig{
			Dir:        viper.GetString("vault.dir"),
			IndexPath:  viper.GetString("vault.index_path"),
			LedgerPath: viper.GetString("vault.ledger_path"),
		},
		Links: types.LinksConfig{
			AutoLinkMinConfidence: viper.GetFloat64("links.auto_link_min_confidence"),
			MinRelevance:          viper.GetFloat64("links.min_relevance"),
			MaxRelated:            viper.GetInt("links.max_related"),
			MinRelatedRelevance:   viper.GetFloat64("links.min_related_relevance"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
