package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/hanweng/lingtutor/internal/config"
	"github.com/hanweng/lingtutor/internal/db"
	"github.com/hanweng/lingtutor/internal/lesson"
	"github.com/hanweng/lingtutor/internal/llm"
)

// deps bundles everything a lesson-running command needs.
type deps struct {
	cfg      *config.Config
	database *db.DB
	sessions *lesson.Manager
}

// buildDeps loads the config, opens the database and wires the session
// manager with its AI collaborators. The caller owns database.Close().
func buildDeps() (*deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	database, err := db.Open(filepath.Join(cfg.DataDir, "lingtutor.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	// The interpreter may run on a cheaper model than the generator.
	interpretModel := cfg.InterpretModel
	if interpretModel == "" {
		interpretModel = cfg.Model
	}

	sessions := lesson.NewManager(
		lesson.NewInterpreter(provider, interpretModel),
		lesson.NewGenerator(provider, cfg.Model),
		lesson.NewStore(database),
	)

	return &deps{cfg: cfg, database: database, sessions: sessions}, nil
}
