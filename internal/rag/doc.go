// Package rag wires the retrieval-augmented answering pipeline: queries are
// screened against the blocklist, matched against the vector index, and
// answered by a local model grounded on the retrieved context. The package
// also owns the ingestion pipeline that turns a documents folder into index
// entries.
//
// Every query produces exactly one audit-log entry regardless of outcome:
// answered, blocked, or failed.
package rag
