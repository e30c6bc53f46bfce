package service

import "context"

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	Chunks() ChunkWriterRepository
}

// TxRunner executes a function within a transaction. Ingestion uses it so a
// reset-and-reingest either commits as a whole or leaves the store untouched.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
