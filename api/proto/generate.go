// Package proto holds the interchange schema for pileup example shards.
//
// The pipeline itself writes tf.Example records through
// internal/triopileup/example and does not import generated bindings; this
// schema exists for cross-language consumers that read the same shards and
// need the option/variant message shapes.
//
// To regenerate bindings:
//
//	go generate ./api/proto
package proto

// Generate Go bindings for external consumers of the shard metadata
//go:generate mkdir -p gen
//go:generate protoc --proto_path=. --go_out=gen --go_opt=paths=source_relative deeptrio.proto
