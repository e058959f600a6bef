package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/rfpworks/rfpworks/internal/config"
	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/openai"
	"github.com/rfpworks/rfpworks/internal/repository"
	"github.com/rfpworks/rfpworks/internal/service"
)

func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the document index",
		Long:  "Index documents, remove them, and inspect index statistics",
	}

	cmd.AddCommand(IndexAddCmd())
	cmd.AddCommand(IndexRemoveCmd())
	cmd.AddCommand(IndexStatsCmd())

	return cmd
}

func IndexAddCmd() *cobra.Command {
	var (
		filePath     string
		orgID        string
		projectID    string
		filename     string
		documentType string
	)

	cmd := &cobra.Command{
		Use:   "add <document-id>",
		Short: "Index a document from a file",
		Long:  "Chunk and embed a text file, replacing any existing chunks for the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexAdd(args[0], filePath, orgID, projectID, filename, documentType)
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Path to the document text file")
	cmd.Flags().StringVar(&orgID, "org", "", "Organization ID")
	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringVar(&filename, "filename", "", "Display filename for source attribution")
	cmd.Flags().StringVar(&documentType, "type", "", "Document type (case_study, company_profile, ...)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}

func runIndexAdd(documentID, filePath, orgID, projectID, filename, documentType string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("indexing requires RFP_OPENAI_API_KEY")
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read document file: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return fmt.Errorf("document file is empty: %s", filePath)
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	indexSvc := service.NewIndexServiceWithConfig(
		repository.NewVectorStore(pool),
		openai.NewClientWithConfig(openai.Config{
			APIKey:          cfg.OpenAIAPIKey,
			EmbeddingModel:  goopenai.EmbeddingModel(cfg.EmbeddingModel),
			CompletionModel: cfg.CompletionModel,
		}),
		service.ChunkConfig{ChunkSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
	)

	if filename == "" {
		filename = filePath
	}

	count, err := indexSvc.IndexDocument(ctx, service.IndexInput{
		DocumentID: documentID,
		OrgID:      orgID,
		ProjectID:  projectID,
		Text:       string(raw),
		Metadata: domain.ChunkMetadata{
			Filename:     filename,
			DocumentType: domain.DocumentType(documentType),
			IsActive:     true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}

	fmt.Printf("Indexed document %s: %d chunks\n", documentID, count)
	return nil
}

func IndexRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <document-id>",
		Short: "Remove a document from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexRemove(args[0])
		},
	}

	return cmd
}

func runIndexRemove(documentID string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	indexSvc := service.NewIndexService(repository.NewVectorStore(pool), nil)
	if err := indexSvc.RemoveDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	fmt.Printf("Removed document %s\n", documentID)
	return nil
}

func IndexStatsCmd() *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics for an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runIndexStats(orgID, outputFormat)
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "Organization ID")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}

func runIndexStats(orgID, outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	stats, err := repository.NewVectorStore(pool).Stats(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Documents: %d\nChunks:    %d\n", stats.Documents, stats.Chunks)
	}

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
