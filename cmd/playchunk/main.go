/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"playchunk/internal/config"
	"playchunk/internal/crash"
	"playchunk/internal/export"
	"playchunk/internal/ingest"
	applog "playchunk/internal/log"
	"playchunk/internal/pipeline"
	"playchunk/internal/publish"
	"playchunk/internal/storage"
	"playchunk/internal/telemetry"
	"playchunk/internal/version"
)

func usage() {
	fmt.Println("playchunk — play transcript chunker for retrieval pipelines")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  playchunk version|-v|--version             Show version")
	fmt.Println("  playchunk chunk -in <csv> -out <json>      Chunk a transcript CSV into retrieval chunks")
	fmt.Println("  playchunk validate -file <json>            Validate a chunk file against the schema")
	fmt.Println("  playchunk index -file <json>               Build the local search index for a chunk file")
	fmt.Println("  playchunk search -file <json> -q <query>   Search an indexed chunk file")
	fmt.Println("  playchunk publish -file <json>             Upload a chunk file to PostgreSQL")
	fmt.Println("  playchunk players -in <csv>                List the speakers of each play")
	fmt.Println()
	fmt.Println("Run a command with -h for its flags.")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer func() { crash.Recover("") }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}
	// Re-init logging with the merged config (file config + env overrides).
	applog.Init(applog.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("playchunk — play transcript chunker")
		fmt.Println(version.String())
	case "chunk":
		cmdChunk(args[2:], cfg)
	case "validate":
		cmdValidate(args[2:])
	case "index":
		cmdIndex(args[2:])
	case "search":
		cmdSearch(args[2:])
	case "publish":
		cmdPublish(args[2:], cfg)
	case "players":
		cmdPlayers(args[2:])
	default:
		fmt.Println("unknown command:", args[1])
		usage()
		os.Exit(2)
	}
}

func fail(err error) {
	applog.WithComponent("cli").Error("command failed", slog.Any("err", err))
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func cmdChunk(args []string, cfg config.AppConfig) {
	fs := flag.NewFlagSet("chunk", flag.ExitOnError)
	in := fs.String("in", "", "input transcript CSV")
	out := fs.String("out", "chunks.json", "output chunk JSON file")
	maxWords := fs.Int("max-words", cfg.Chunking.MaxWords, "maximum words per chunk")
	play := fs.String("play", cfg.Chunking.Play, "only process this play")
	pdf := fs.String("pdf", "", "also write a PDF review report to this path")
	buildIndex := fs.Bool("index", false, "also build the local search index")
	_ = fs.Parse(args)
	if *in == "" {
		fail(fmt.Errorf("chunk requires -in <csv>"))
	}

	rows, err := ingest.Load(*in)
	if err != nil {
		fail(err)
	}
	chunks, err := pipeline.Run(rows, pipeline.Options{MaxWords: *maxWords, Play: *play})
	if err != nil {
		fail(err)
	}
	if err := export.WriteChunks(chunks, *out); err != nil {
		fail(err)
	}
	if *pdf != "" {
		opts := export.PDFOptions{Title: "Chunk review", MaxWords: *maxWords}
		if err := export.WriteReport(chunks, *pdf, opts); err != nil {
			fail(err)
		}
	}
	if *buildIndex {
		if err := storage.BuildIndex(context.Background(), storage.IndexPath(*out), chunks); err != nil {
			fail(err)
		}
	}
	telemetry.Event("chunk_run", map[string]any{"chunks": len(chunks)})
	fmt.Printf("Wrote %d chunks to %s\n", len(chunks), *out)
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	file := fs.String("file", "chunks.json", "chunk JSON file to validate")
	_ = fs.Parse(args)

	msgs, err := export.ValidateFile(*file)
	if err != nil {
		fail(err)
	}
	if len(msgs) > 0 {
		for _, m := range msgs {
			fmt.Fprintln(os.Stderr, "schema:", m)
		}
		fail(fmt.Errorf("%s: %d schema violations", *file, len(msgs)))
	}
	fmt.Println(*file, "is valid")
}

func cmdIndex(args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	file := fs.String("file", "chunks.json", "chunk JSON file to index")
	_ = fs.Parse(args)

	chunks, err := export.ReadChunks(*file)
	if err != nil {
		fail(err)
	}
	path := storage.IndexPath(*file)
	if err := storage.BuildIndex(context.Background(), path, chunks); err != nil {
		fail(err)
	}
	fmt.Printf("Indexed %d chunks in %s\n", len(chunks), path)
}

func cmdSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	file := fs.String("file", "chunks.json", "chunk JSON file whose index to search")
	text := fs.String("q", "", "full-text query (FTS5 syntax)")
	play := fs.String("play", "", "filter by play")
	act := fs.String("act", "", "filter by act")
	scene := fs.String("scene", "", "filter by scene")
	speaker := fs.String("speaker", "", "filter by speaker")
	limit := fs.Int("limit", 20, "maximum results")
	offset := fs.Int("offset", 0, "results to skip")
	asJSON := fs.Bool("json", false, "print results as JSON")
	_ = fs.Parse(args)

	results, err := storage.Search(context.Background(), storage.IndexPath(*file), storage.SearchQuery{
		Text:    *text,
		Play:    *play,
		Act:     *act,
		Scene:   *scene,
		Speaker: *speaker,
		Limit:   *limit,
		Offset:  *offset,
	})
	if err != nil {
		fail(err)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fail(err)
		}
		return
	}
	for _, r := range results {
		fmt.Printf("#%d %s %s.%s lines %s-%s", r.ChunkID, r.Play, r.Act, r.Scene, r.FirstLine, r.LastLine)
		if r.Snippet != "" {
			fmt.Printf("  %s", r.Snippet)
		}
		fmt.Println()
	}
	if len(results) == 0 {
		fmt.Println("no matches")
	}
}

func cmdPublish(args []string, cfg config.AppConfig) {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	file := fs.String("file", "chunks.json", "chunk JSON file to publish")
	dsn := fs.String("dsn", cfg.Publish.DSN, "PostgreSQL DSN (defaults to keyring or "+config.EnvPgDSN+")")
	table := fs.String("table", cfg.Publish.Table, "target chunk table")
	saveDSN := fs.Bool("save-dsn", false, "store the DSN in the OS keyring for later runs")
	_ = fs.Parse(args)

	chunks, err := export.ReadChunks(*file)
	if err != nil {
		fail(err)
	}
	res, err := publish.Publish(context.Background(), *dsn, chunks, publish.Options{
		Source: *file,
		Table:  *table,
	})
	if err != nil {
		fail(err)
	}
	if *saveDSN {
		if err := config.Save(cfg, *dsn); err != nil {
			fail(fmt.Errorf("publish succeeded but saving DSN failed: %w", err))
		}
	}
	telemetry.Event("publish", map[string]any{"chunks": res.Chunks})
	fmt.Printf("Published %d chunks as batch %s\n", res.Chunks, res.BatchID)
}

func cmdPlayers(args []string) {
	fs := flag.NewFlagSet("players", flag.ExitOnError)
	in := fs.String("in", "", "input transcript CSV")
	asJSON := fs.Bool("json", false, "print as JSON")
	_ = fs.Parse(args)
	if *in == "" {
		fail(fmt.Errorf("players requires -in <csv>"))
	}

	rows, err := ingest.Load(*in)
	if err != nil {
		fail(err)
	}
	plays := ingest.Players(rows)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plays); err != nil {
			fail(err)
		}
		return
	}
	for _, p := range plays {
		fmt.Printf("%s (%d speakers)\n", p.Play, len(p.Players))
		for _, name := range p.Players {
			fmt.Println("  ", name)
		}
	}
}
