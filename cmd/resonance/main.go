package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/resonancehq/resonance/internal/profile"
	"github.com/resonancehq/resonance/plugin/llm"
	"github.com/resonancehq/resonance/plugin/rag"
	"github.com/resonancehq/resonance/plugin/vectorstore"
	"github.com/resonancehq/resonance/plugin/vectorstore/chromem"
	"github.com/resonancehq/resonance/plugin/vectorstore/pinecone"
	"github.com/resonancehq/resonance/server"
	"github.com/resonancehq/resonance/store"
	"github.com/resonancehq/resonance/store/db/mysql"
	"github.com/resonancehq/resonance/store/db/postgres"
	"github.com/resonancehq/resonance/store/db/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "resonance",
	Short: "Reading-assistant backend: summaries, Q&A and reading history",
	Run: func(_ *cobra.Command, _ []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		prof, err := profile.GetProfile(viper.GetViper())
		if err != nil {
			slog.Error("invalid configuration", "err", err)
			os.Exit(1)
		}

		st := newStore(ctx, prof)
		if st != nil {
			defer st.Close()
		}

		var client llm.Client
		if prof.OpenAIAPIKey != "" {
			client = llm.NewOpenAI(prof.OpenAIAPIKey, prof.OpenAIBaseURL, prof.ChatModel, prof.EmbeddingModel)
		} else {
			slog.Warn("OPENAI_API_KEY not set - summarization and Q&A disabled")
		}

		var retriever *rag.Retriever
		if index := newIndex(prof, client); index != nil {
			retriever = rag.NewRetriever(client, index)
		}

		srv := server.New(prof, st, client, retriever)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("server failed", "err", err)
				cancel()
			}
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sig:
			slog.Info("shutting down", "signal", s.String())
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "err", err)
		}
	},
}

// newStore opens the configured conversation store, or returns nil when
// history is disabled or unreachable. Startup never fails on storage.
func newStore(ctx context.Context, prof *profile.Profile) *store.Store {
	if prof.DSN == "" {
		slog.Warn("no database configured - conversations will not be saved")
		return nil
	}
	var (
		driver store.Driver
		err    error
	)
	switch prof.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(prof.DSN)
	case "postgres":
		driver, err = postgres.NewDB(prof.DSN)
	case "mysql":
		driver, err = mysql.NewDB(prof.DSN)
	}
	if err != nil {
		slog.Warn("database connection failed - conversations will not be saved", "err", err)
		return nil
	}
	if err := driver.EnsureTables(ctx); err != nil {
		slog.Warn("schema migration failed - conversations will not be saved", "err", err)
		_ = driver.Close()
		return nil
	}
	slog.Info("database connected", "driver", prof.Driver)
	return store.New(driver)
}

// newIndex picks the vector index backend: hosted Pinecone when
// configured, otherwise the embedded index. Returns nil when retrieval
// cannot work (no embedding client).
func newIndex(prof *profile.Profile, client llm.Client) vectorstore.Index {
	if client == nil {
		return nil
	}
	if prof.PineconeAPIKey != "" && prof.PineconeHost != "" {
		slog.Info("using pinecone vector index", "host", prof.PineconeHost)
		return pinecone.New(pinecone.Config{
			Host:   prof.PineconeHost,
			APIKey: prof.PineconeAPIKey,
		})
	}
	index, err := chromem.New(prof.Data)
	if err != nil {
		slog.Warn("vector index unavailable - similar-article retrieval disabled", "err", err)
		return nil
	}
	slog.Info("using embedded vector index", "data", prof.Data)
	return index
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("addr", "", "bind address")
	flags.Int("port", 8000, "listen port")
	flags.String("data", ".", "directory for locally persisted state")
	flags.String("driver", "sqlite", "database driver: sqlite | postgres | mysql")
	flags.String("dsn", "", "database connection string (empty disables history)")

	for _, name := range []string{"addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("resonance")
	viper.AutomaticEnv()

	// Unprefixed names kept for parity with existing deployments.
	_ = viper.BindEnv("dsn", "RESONANCE_DSN", "DATABASE_URL")
	_ = viper.BindEnv("openai-api-key", "OPENAI_API_KEY")
	_ = viper.BindEnv("openai-base-url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("chat-model", "OPENAI_MODEL")
	_ = viper.BindEnv("embedding-model", "OPENAI_EMBEDDING_MODEL")
	_ = viper.BindEnv("pinecone-api-key", "PINECONE_API_KEY")
	_ = viper.BindEnv("pinecone-host", "PINECONE_HOST")
}

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
