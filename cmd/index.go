package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tahrir-ai/tahrir/internal/config"
	"github.com/tahrir-ai/tahrir/internal/passage"
	"github.com/tahrir-ai/tahrir/internal/rag"
)

var (
	forceReindex bool
	batchSize    int
)

var indexCmd = &cobra.Command{
	Use:   "index [corpus-dir]",
	Short: "Index an HTML corpus into the passage catalog and vector store",
	Long: `Index reference articles into the retrieval stores.

Each .html file in the corpus directory is split into section passages,
embedded, and written to both the SQLite catalog and the Milvus vector
store. The file name (without extension) becomes the passage source id.

Examples:
  tahrir index ./corpus
  tahrir index ./corpus --force
  tahrir index ./corpus --batch 32`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&forceReindex, "force", false, "Re-embed and replace passages already indexed")
	indexCmd.Flags().IntVar(&batchSize, "batch", 64, "Passages per embedding batch")
}

func runIndex(cmd *cobra.Command, args []string) error {
	corpusDir := args[0]
	ctx := context.Background()

	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Italic(true)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		return fmt.Errorf("%s reading corpus directory: %w", errorStyle.Render("Error:"), err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := strings.ToLower(filepath.Ext(entry.Name())); ext == ".html" || ext == ".htm" {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("%s no HTML files in %s", errorStyle.Render("Error:"), corpusDir)
	}

	fmt.Println(detailStyle.Render(fmt.Sprintf("→ Chunking %d source files...", len(files))))

	var passages []passage.Passage
	bar := progressbar.Default(int64(len(files)), "chunking")
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(corpusDir, name))
		if err != nil {
			return fmt.Errorf("%s reading %s: %w", errorStyle.Render("Error:"), name, err)
		}
		sourceID := strings.TrimSuffix(name, filepath.Ext(name))
		chunks, err := rag.ChunkSections(string(data), sourceID, rag.DefaultChunkOptions())
		if err != nil {
			return fmt.Errorf("%s chunking %s: %w", errorStyle.Render("Error:"), name, err)
		}
		passages = append(passages, chunks...)
		_ = bar.Add(1)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ %d passages from %d sources", len(passages), len(files))))

	store, err := passage.OpenStore(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	defer store.Close()

	milvusCfg := rag.DefaultMilvusConfig()
	milvusCfg.Address = cfg.Milvus.Address
	milvusCfg.CollectionName = cfg.Milvus.Collection
	milvusCfg.Dimension = cfg.Embedding.Dimension

	vectorStore, err := rag.NewMilvusStore(ctx, milvusCfg)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	defer vectorStore.Close()

	embedder, err := rag.NewOpenAIEmbedder(cfg.Embedding.Model, cfg.Embedding.Dimension)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	opts := rag.DefaultIndexOptions()
	opts.BatchSize = batchSize
	opts.ForceReindex = forceReindex
	opts.SkipExisting = !forceReindex

	fmt.Println(detailStyle.Render("→ Embedding and indexing..."))
	stats, err := rag.IndexPassages(ctx, passages, embedder, vectorStore, store, opts)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Indexed %d passages (%d skipped, %d replaced)", stats.Indexed, stats.Skipped, stats.Replaced)))
	return nil
}
