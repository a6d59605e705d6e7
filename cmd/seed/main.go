package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"polly/internal/config"
	discSvc "polly/internal/domain/services/discussion"
	"polly/internal/repository/postgres"
	postgresDisc "polly/internal/repository/postgres/discussion"
	serviceDisc "polly/internal/service/discussion"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedFile []byte

// scenario is the embedded seed data: reputation grants, root comments and
// a reply expansion below every root comment.
type scenario struct {
	Reputations []struct {
		Pseudo    string `yaml:"pseudo"`
		SubtreeID string `yaml:"subtree_id"`
		Delta     int64  `yaml:"delta"`
	} `yaml:"reputations"`
	RootComments []string `yaml:"root_comments"`
	Replies      struct {
		Pseudo string `yaml:"pseudo"`
		Depth  int    `yaml:"depth"`
		Fanout int    `yaml:"fanout"`
	} `yaml:"replies"`
}

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed data")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: destructive flags never run against production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: refusing --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *dropTables {
		log.Println("Dropping schema...")
		if err := postgres.DropSchema(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to drop schema: %v", err)
		}
	}

	log.Println("Applying migrations...")
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if *schemaOnly {
		log.Println("Schema ready (schema-only mode)")
		return
	}

	var sc scenario
	if err := yaml.Unmarshal(seedFile, &sc); err != nil {
		log.Fatalf("Failed to parse seed scenario: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Logger: logger}
	reputationService := serviceDisc.NewReputationService(postgresDisc.NewReputationStore(repoConfig), logger)
	treeService := serviceDisc.NewTreeService(postgresDisc.NewSubtreeStore(repoConfig), reputationService, logger)

	// Reputations first, so seeded comments snapshot non-zero values.
	for _, grant := range sc.Reputations {
		if _, err := reputationService.IncrementReputation(ctx, grant.Pseudo, grant.SubtreeID, grant.Delta); err != nil {
			log.Fatalf("Failed to grant reputation to %s at %s: %v", grant.Pseudo, grant.SubtreeID, err)
		}
	}
	log.Printf("Granted %d reputation entries", len(sc.Reputations))

	// Root comments bootstrap the tree.
	level := make([]*discSvc.AppendResult, 0, len(sc.RootComments))
	for _, text := range sc.RootComments {
		result, err := treeService.AppendRootComment(ctx, text)
		if err != nil {
			log.Fatalf("Failed to append root comment: %v", err)
		}
		level = append(level, result)
	}
	log.Printf("Appended %d root comments", len(level))

	// Expand replies level by level, the way users would.
	total := 0
	for d := 0; d < sc.Replies.Depth; d++ {
		next := make([]*discSvc.AppendResult, 0, len(level)*sc.Replies.Fanout)
		for _, parent := range level {
			for n := 0; n < sc.Replies.Fanout; n++ {
				result, err := treeService.AppendChildComment(ctx, &discSvc.AppendChildRequest{
					ParentID:        parent.Comment.ChildID,
					ParentSubtreeID: parent.SubtreeID,
					Pseudo:          sc.Replies.Pseudo,
					Text:            fmt.Sprintf("%s - comment %d", parent.SubtreeID, n),
				})
				if err != nil {
					log.Fatalf("Failed to append reply under %s: %v", parent.SubtreeID, err)
				}
				next = append(next, result)
			}
		}
		total += len(next)
		level = next
	}
	log.Printf("Appended %d replies", total)
	log.Println("Done.")
}
