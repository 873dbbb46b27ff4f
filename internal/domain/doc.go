// Package domain holds habitat survey records, code sets, output partitions
// and the sentinel errors shared by the engine, the ingestion pipeline and the
// storage adapters.
package domain
