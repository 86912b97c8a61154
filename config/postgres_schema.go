package config

import (
	"errors"

	"github.com/lectura-ai/backend/internal/models"
)

// EnsurePostgresSchema creates the pgvector extension, migrates the
// tables, and builds the ANN index. Safe to run on every boot.
func EnsurePostgresSchema() error {
	if PostgresDB == nil {
		return errors.New("PostgresDB is nil; call InitPostgres() first")
	}
	db := PostgresDB

	// vector type must exist before AutoMigrate sees the embedding column
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&models.Video{},
		&models.TranscriptChunk{},
		&models.ChunkEmbedding{},
	); err != nil {
		return err
	}

	// vector_cosine_ops must match the <=> operator used by searches
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_chunk_embeddings_embedding
		ON chunk_embeddings
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`).Error
}
