package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/rfpworks/rfpworks/internal/config"
	"github.com/rfpworks/rfpworks/internal/openai"
	"github.com/rfpworks/rfpworks/internal/repository"
	"github.com/rfpworks/rfpworks/internal/service"
)

func AnswerCmd() *cobra.Command {
	var (
		questionID string
		orgID      string
		projectID  string
		topK       int
	)

	cmd := &cobra.Command{
		Use:   "answer [question text]",
		Short: "Generate an answer from the command line",
		Long:  "Run the full retrieval and synthesis pipeline for a stored question id or an ad-hoc question text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questionText := ""
			if len(args) == 1 {
				questionText = args[0]
			}
			outputFormat, _ := cmd.Flags().GetString("output")
			return runAnswer(questionID, questionText, orgID, projectID, topK, outputFormat)
		},
	}

	cmd.Flags().StringVar(&questionID, "question-id", "", "Stored question ID (alternative to question text)")
	cmd.Flags().StringVar(&orgID, "org", "", "Organization ID (required with ad-hoc question text)")
	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of chunks to retrieve")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runAnswer(questionID, questionText, orgID, projectID string, topK int, outputFormat string) error {
	ctx := context.Background()

	if questionID == "" && strings.TrimSpace(questionText) == "" {
		return fmt.Errorf("either --question-id or question text is required")
	}
	if questionID == "" && orgID == "" {
		return fmt.Errorf("--org is required with ad-hoc question text")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	var embeddingClient service.EmbeddingClient
	var completionClient service.CompletionClient
	if cfg.HasOpenAI() {
		client := openai.NewClientWithConfig(openai.Config{
			APIKey:          cfg.OpenAIAPIKey,
			EmbeddingModel:  goopenai.EmbeddingModel(cfg.EmbeddingModel),
			CompletionModel: cfg.CompletionModel,
		})
		embeddingClient = client
		completionClient = client
	}

	vectorStore := repository.NewVectorStore(pool)
	retriever := service.NewRetrievalServiceWithConfig(vectorStore, embeddingClient, service.RetrievalConfig{
		TopK:     cfg.MaxContextChunks,
		MinScore: float32(cfg.MinSimilarity),
	})
	answerSvc := service.NewAnswerService(
		retriever,
		nil,
		service.NewContextAssembler(cfg.MaxContextLength),
		completionClient,
		repository.NewQuestionRepository(pool),
		repository.NewAnswerStore(pool),
		service.AnswerConfig{TopK: cfg.MaxContextChunks},
	)

	result, err := answerSvc.Generate(ctx, service.GenerateInput{
		QuestionID:   questionID,
		QuestionText: questionText,
		Scope:        service.SearchScope{OrgID: orgID, ProjectID: projectID},
		TopK:         topK,
	})
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Println(result.Answer.Text)
	fmt.Printf("\nConfidence: %.2f  Grounded: %t  Chunks: %d\n",
		result.Answer.Confidence, result.Metadata.Grounded, result.Metadata.ChunksUsed)
	for _, src := range result.Answer.Sources {
		fmt.Printf("  - %s (%d%%) %s\n", src.FileName, src.RelevancePercent, src.ChunkRef)
	}
	if len(result.Metadata.Degraded) > 0 {
		fmt.Printf("Degraded: %s\n", strings.Join(result.Metadata.Degraded, ", "))
	}
	return nil
}
