// Package services contains the core pipelines, written against driven
// ports so adapters stay swappable.
//
// IndexerService rebuilds the vector collection from the lesson corpus:
// chunk, embed in document mode, upsert. AssistantService answers
// questions: embed the question in query mode, retrieve similar chunks,
// assemble context, generate a grounded answer with citations. The
// indexer fails loudly; the assistant degrades gracefully.
package services
