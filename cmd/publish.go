package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tahrir-ai/tahrir/internal/publish"
)

var (
	postTitle string
	postSlug  string
)

var publishCmd = &cobra.Command{
	Use:   "publish [html-file]",
	Short: "Publish a generated article to WordPress as a draft",
	Long: `Publish a previously generated HTML article to WordPress.

Required environment variables:
  WP_API_BASE (or WP_BASE_URL)  - WordPress REST API endpoint
  WP_USERNAME                   - WordPress user name
  WP_APP_PASSWORD               - WordPress application password

Examples:
  tahrir publish article.html --title "طراحی سایت از صفر تا صد"
  tahrir publish article.html --slug "web-design-guide"`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&postTitle, "title", "", "Post title (default: the article's H1)")
	publishCmd.Flags().StringVar(&postSlug, "slug", "", "Post slug")
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("%s reading article: %w", errorStyle.Render("Error:"), err)
	}
	html := string(data)

	// A full page export carries the body only.
	if start := strings.Index(html, "<body>"); start >= 0 {
		if end := strings.Index(html, "</body>"); end > start {
			html = strings.TrimSpace(html[start+len("<body>") : end])
		}
	}

	title := postTitle
	if title == "" {
		title = firstHeading(html, strings.TrimSuffix(args[0], ".html"))
	}

	client, err := publish.NewClient(publish.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	post, err := client.CreateDraft(ctx, title, postSlug, html, "")
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Created post %d (%s): %s", post.ID, post.Status, post.Link)))
	return nil
}
