package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"ai-caller-be/internal/config"
	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/pkg/logger"
	"ai-caller-be/internal/repository/unitofwork"
	"ai-caller-be/internal/service"
	"ai-caller-be/pkg/database"
	"ai-caller-be/pkg/elevenlabs"
	"ai-caller-be/pkg/knowledge/reconcile"

	"github.com/spf13/cobra"
)

var (
	withLocal bool
	jsonOut   bool
)

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "Inspect the ElevenLabs knowledge base",
	Long: `kbctl - knowledge base operator tool

Reads the same configuration as the REST server (.env or environment):
  ELEVENLABS_API_KEY, ELEVENLABS_BASE_URL, DB_CONNECTION_STRING`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&withLocal, "local", false, "merge console metadata from DB_CONNECTION_STRING")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "JSON output")
}

type runtime struct {
	client *elevenlabs.Client
	engine *reconcile.Engine
	logger logger.ILogger
}

// emptyLocalStore stands in for the database when --local is not given.
type emptyLocalStore struct{}

func (emptyLocalStore) List(context.Context) ([]*entity.KnowledgeMeta, error) { return nil, nil }
func (emptyLocalStore) Create(context.Context, *entity.KnowledgeMeta) error  { return nil }
func (emptyLocalStore) Delete(context.Context, string) error                 { return nil }

func newRuntime() (*runtime, error) {
	cfg := config.Load()
	log := logger.NewNopLogger()

	client := elevenlabs.NewClient(elevenlabs.Options{
		BaseURL:           cfg.KnowledgeBase.BaseURL,
		ConvaiPrefix:      cfg.KnowledgeBase.ConvaiPrefix,
		LegacyPrefix:      cfg.KnowledgeBase.LegacyPrefix,
		APIKey:            cfg.Keys.ElevenLabs,
		Timeout:           cfg.KnowledgeBase.RequestTimeout,
		RequestsPerSecond: cfg.KnowledgeBase.RequestsPerSecond,
	})

	var local reconcile.LocalStore = emptyLocalStore{}
	if withLocal {
		if cfg.Database.Connection == "" {
			return nil, fmt.Errorf("--local requires DB_CONNECTION_STRING")
		}
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
		if err != nil {
			return nil, err
		}
		local = service.NewLocalMetaStore(unitofwork.NewRepositoryFactory(db))
	}

	return &runtime{
		client: client,
		engine: reconcile.NewEngine(client, local, log),
		logger: log,
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
