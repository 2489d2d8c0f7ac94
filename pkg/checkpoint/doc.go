// Package checkpoint persists scraping progress so interrupted runs can
// resume from the last cursor instead of starting over. One checkpoint file
// exists per handle and stream kind, written atomically via a temp file and
// rename.
package checkpoint
