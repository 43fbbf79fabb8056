package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tahrir-ai/tahrir/internal/config"
	"github.com/tahrir-ai/tahrir/internal/llm"
	"github.com/tahrir-ai/tahrir/internal/passage"
	"github.com/tahrir-ai/tahrir/internal/pipeline"
	"github.com/tahrir-ai/tahrir/internal/publish"
	"github.com/tahrir-ai/tahrir/internal/quality"
	"github.com/tahrir-ai/tahrir/internal/rag"
	"github.com/tahrir-ai/tahrir/internal/selector"
)

var (
	outputPath   string
	publishDraft bool
	noVector     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [keyword]",
	Short: "Generate a Persian blog article for a keyword",
	Long: `Generate a complete Persian blog article for the given keyword.

This command:
1. Loads the passage catalog and connects to the vector store (Milvus)
2. Generates the introduction, plans the body and generates its sections
3. Scores the article across quality dimensions and runs one repair pass
4. Writes the article as an HTML file (and optionally publishes a draft)

Required environment variables:
  OPENAI_API_KEY     - OpenAI API key for embeddings and completions
  MILVUS_ADDRESS     - Milvus server address (default: localhost:19530)

Examples:
  tahrir generate "طراحی سایت"
  tahrir generate "سئو سایت" --output seo.html --publish
  tahrir generate "بازاریابی محتوا" --no-vector`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&outputPath, "output", "article.html", "Output HTML file path")
	generateCmd.Flags().BoolVar(&publishDraft, "publish", false, "Publish the article to WordPress as a draft")
	generateCmd.Flags().BoolVar(&noVector, "no-vector", false, "Skip the vector store and select from the full catalog")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	kw := strings.TrimSpace(args[0])
	ctx := context.Background()

	// Styling
	var (
		headerColor  = lipgloss.Color("#F780FF")
		detailColor  = lipgloss.Color("#6272A4")
		errorColor   = lipgloss.Color("#FF5555")
		successColor = lipgloss.Color("#50FA7B")
		warnColor    = lipgloss.Color("#F1FA8C")
	)

	headerStyle := lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	detailStyle := lipgloss.NewStyle().Foreground(detailColor).Italic(true)
	errorStyle := lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	successStyle := lipgloss.NewStyle().Foreground(successColor)
	warnStyle := lipgloss.NewStyle().Foreground(warnColor)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Config:"), e.Error())
		}
		return fmt.Errorf("invalid configuration")
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Keyword:"), kw)
	fmt.Println()

	// Step 1: Load the passage catalog
	fmt.Println(detailStyle.Render("→ Loading passage catalog..."))
	store, err := passage.OpenStore(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	defer store.Close()

	catalog, err := store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Loaded %d passages", catalog.Len())))

	// Step 2: Connect to the vector store
	var vectorStore rag.VectorStore
	if !noVector {
		milvusCfg := rag.DefaultMilvusConfig()
		milvusCfg.Address = cfg.Milvus.Address
		milvusCfg.CollectionName = cfg.Milvus.Collection
		milvusCfg.Dimension = cfg.Embedding.Dimension

		ms, err := rag.NewMilvusStore(ctx, milvusCfg)
		if err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("! Vector store unavailable, using full catalog: %v", err)))
		} else {
			vectorStore = ms
			defer ms.Close()
		}
	}

	embedder, err := rag.NewOpenAIEmbedder(cfg.Embedding.Model, cfg.Embedding.Dimension)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	retriever, err := rag.NewRetriever(embedder, vectorStore, catalog)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	// Step 3: Build the completion service and quality stack
	client, err := llm.NewOpenAIClient(llm.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	svc := llm.NewRateLimited(client, cfg.LLM.RPS, cfg.Generation.Workers)

	scorerCfg := quality.DefaultScorerConfig()
	scorerCfg.MinWordCount = cfg.Generation.MinWordCount
	scorerCfg.DensityLow = cfg.Quality.DensityLow
	scorerCfg.DensityHigh = cfg.Quality.DensityHigh
	scorer, err := quality.NewScorer(scorerCfg)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	controllerCfg := quality.DefaultControllerConfig()
	controllerCfg.Threshold = cfg.Quality.Threshold
	controllerCfg.DimensionFloor = cfg.Quality.DimensionFloor
	controller, err := quality.NewController(scorer, controllerCfg)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	pipeCfg := pipeline.DefaultConfig()
	pipeCfg.TopK = cfg.Generation.TopK
	pipeCfg.SectionCount = cfg.Generation.SectionCount
	pipeCfg.Workers = cfg.Generation.Workers
	pipeCfg.MinSectionWords = cfg.Generation.MinSectionWords
	pipeCfg.Selector = selector.Config{
		RelevanceWeight: cfg.Selection.RelevanceWeight,
		DiversityWeight: cfg.Selection.DiversityWeight,
		SectionBonus:    cfg.Selection.SectionBonus,
		PerSourceCap:    cfg.Selection.PerSourceCap,
	}
	pipeCfg.LLMOptions = llm.Options{MaxTokens: cfg.LLM.MaxTokens, Temperature: cfg.LLM.Temperature}

	pipe, err := pipeline.New(retriever, svc, scorer, controller, pipeCfg)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	// Step 4: Generate
	fmt.Println(detailStyle.Render("→ Generating article..."))
	result, err := pipe.Run(ctx, kw)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Generated %d words, quality %.2f", result.Document.WordCount(), result.Report.Overall)))
	if result.RepairErr != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("! Repair pass failed: %v", result.RepairErr)))
	}
	if result.Report.BelowThreshold {
		fmt.Println(warnStyle.Render("! Article is below the quality threshold"))
	}

	// Step 5: Write output
	page := renderPage(kw, result.Document.HTML())
	if err := os.WriteFile(outputPath, []byte(page), 0o644); err != nil {
		return fmt.Errorf("%s writing output: %w", errorStyle.Render("Error:"), err)
	}
	fmt.Println(successStyle.Render("✓ Wrote " + outputPath))

	// Step 6: Publish (optional)
	if publishDraft {
		fmt.Println(detailStyle.Render("→ Publishing draft..."))
		wp, err := publish.NewClient(publish.ConfigFromEnv())
		if err != nil {
			return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
		}
		post, err := wp.CreateDraft(ctx, firstHeading(result.Document.HTML(), kw), "", result.Document.HTML(), "")
		if err != nil {
			return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ Created post %d (%s): %s", post.ID, post.Status, post.Link)))
	}

	fmt.Println()
	return nil
}

// renderPage wraps the article body in a right-to-left HTML page.
func renderPage(title, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html dir="rtl" lang="fa">` + "\n<head>\n")
	b.WriteString(`<meta charset="utf-8">` + "\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", title)
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// firstHeading extracts the H1 text for the post title, falling back to the
// keyword.
func firstHeading(html, fallback string) string {
	start := strings.Index(html, "<h1>")
	if start < 0 {
		return fallback
	}
	end := strings.Index(html[start:], "</h1>")
	if end < 0 {
		return fallback
	}
	return strings.TrimSpace(html[start+len("<h1>") : start+end])
}
