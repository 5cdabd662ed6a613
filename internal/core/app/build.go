package app

import (
	"cirgen/internal/core/errors"
	"cirgen/internal/data/store"
	"cirgen/internal/engine/header"
	"cirgen/internal/engine/ir"
	"cirgen/internal/shared/observability"
	"cirgen/internal/shared/util"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// BuildResult describes one built (or cache-restored) header.
type BuildResult struct {
	Path       string
	Module     string
	Output     string
	Cached     bool
	SnapshotID string
	Stats      Stats
	Duration   time.Duration
}

// Failure is a per-file build error collected by BuildAll.
type Failure struct {
	Path string
	Err  error
}

type Summary struct {
	Results  []BuildResult
	Failures []Failure
}

// Err joins the per-file failures, or returns nil.
func (s Summary) Err() error {
	if len(s.Failures) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		msgs = append(msgs, fmt.Sprintf("%s: %v", f.Path, f.Err))
	}
	return errors.New(errors.CodeInternal,
		fmt.Sprintf("%d of %d headers failed: %s", len(s.Failures), len(s.Failures)+len(s.Results), strings.Join(msgs, "; ")))
}

// BuildFile reads, compiles and writes one header. When the store holds a
// snapshot for identical content and settings, the stored document is
// written instead of rebuilding.
func (a *App) BuildFile(ctx context.Context, path string) (BuildResult, error) {
	s := a.current()
	ctx, span := observability.Tracer.Start(ctx, "app.BuildFile", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	res, err := a.buildFile(ctx, s, path)
	if err != nil {
		observability.BuildsTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, errors.AddContext(err, errors.CtxPath, path)
	}
	if res.Cached {
		observability.BuildsTotal.WithLabelValues("cached").Inc()
	} else {
		observability.BuildsTotal.WithLabelValues("built").Inc()
	}
	span.SetAttributes(attribute.Bool("cached", res.Cached))
	return res, nil
}

func (a *App) buildFile(ctx context.Context, s *settings, path string) (BuildResult, error) {
	start := time.Now()
	res := BuildResult{Path: path, Module: a.moduleName(path)}

	if !header.IsSupportedPath(path) {
		return res, errors.New(errors.CodeNotSupported, "unsupported header input")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return res, errors.Wrap(err, errors.CodeNotFound, "header not found")
		}
		if os.IsPermission(err) {
			return res, errors.Wrap(err, errors.CodePermissionDenied, "read header")
		}
		return res, errors.Wrap(err, errors.CodeInternal, "read header")
	}
	hash := util.ContentHash(append(content, []byte("\x00"+s.fingerprint)...))
	res.Output = a.outputPath(s, res.Module)

	if a.store != nil {
		snap, doc, err := a.store.FindByHash(ctx, res.Module, hash)
		switch {
		case err == nil:
			if err := writeDocument(res.Output, doc, s.cfg.Output.Pretty); err != nil {
				return res, err
			}
			slog.Debug("reused snapshot", "path", path, "module", res.Module, "snapshot", snap.ID)
			res.Cached = true
			res.SnapshotID = snap.ID
			res.Stats.Functions = snap.Functions
			res.Stats.Patterns = snap.Patterns
			res.Stats.UnknownTypes = snap.UnknownTypes
			res.Duration = time.Since(start)
			return res, nil
		case errors.IsCode(err, errors.CodeNotFound), errors.IsCode(err, errors.CodeConflict):
			// Rebuild.
		default:
			slog.Warn("snapshot lookup failed", "path", path, "module", res.Module, "error", err)
		}
	}

	parseStart := time.Now()
	h, err := s.parser.ParseFile(path, content)
	if err != nil {
		return res, err
	}
	observability.ParsingDuration.WithLabelValues(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")).
		Observe(time.Since(parseStart).Seconds())
	h.Name = res.Module

	compiled, err := a.compile(ctx, s, h)
	if err != nil {
		return res, err
	}
	res.Stats = compiled.Stats
	observability.ModuleFunctions.WithLabelValues(res.Module).Set(float64(compiled.Stats.Functions))

	doc := ir.Encode(compiled.Module.Sorted())
	writeStart := time.Now()
	if err := writeDocument(res.Output, doc, s.cfg.Output.Pretty); err != nil {
		return res, err
	}
	observability.StageDuration.WithLabelValues("write").Observe(time.Since(writeStart).Seconds())

	if a.store != nil {
		storeStart := time.Now()
		snap, err := a.store.Save(ctx, store.Snapshot{
			Module:       res.Module,
			SourcePath:   path,
			ContentHash:  hash,
			UnknownTypes: compiled.Stats.UnknownTypes,
		}, doc)
		if err != nil {
			// The output is already written; a missing snapshot only costs a
			// rebuild next time.
			slog.Warn("failed to persist snapshot", "path", path, "module", res.Module, "error", err)
		} else {
			res.SnapshotID = snap.ID
		}
		observability.StageDuration.WithLabelValues("store").Observe(time.Since(storeStart).Seconds())
	}

	res.Duration = time.Since(start)
	slog.Info("built module",
		"module", res.Module,
		"path", path,
		"functions", res.Stats.Functions,
		"patterns", res.Stats.Patterns,
		"unknown_types", res.Stats.UnknownTypes,
		"duration", res.Duration,
	)
	return res, nil
}

func (a *App) moduleName(path string) string {
	if a.module != "" {
		return a.module
	}
	return header.ModuleName(path)
}

// OutputPath returns where the document for module is written.
func (a *App) OutputPath(module string) string {
	return a.outputPath(a.current(), module)
}

func (a *App) outputPath(s *settings, module string) string {
	return filepath.Join(s.cfg.Output.Dir, s.cfg.Output.ModulePrefix+module+".ir.json")
}

func writeDocument(path string, doc ir.Document, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode IR document")
	}
	data = append(data, '\n')
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write IR document"), errors.CtxPath, path)
	}
	return nil
}

// BuildAll builds every header found under paths (cfg.Input.Paths when
// empty) with up to Build.Workers files in flight. A failing file does not
// stop the others; failures are collected in the summary.
func (a *App) BuildAll(ctx context.Context, paths []string) (Summary, error) {
	s := a.current()
	if len(paths) == 0 {
		paths = s.cfg.Input.Paths
	}
	files, err := Discover(paths, s.cfg.Input.Extensions, s.cfg.Input.ExcludeFiles)
	if err != nil {
		return Summary{}, err
	}
	if len(files) > 1 && a.module != "" {
		return Summary{}, errors.New(errors.CodeValidationError, "a module name override needs exactly one input header")
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	workers := s.cfg.Build.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.BuildFile(gctx, file)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("build failed", "path", file, "error", err)
				summary.Failures = append(summary.Failures, Failure{Path: file, Err: err})
				return nil
			}
			summary.Results = append(summary.Results, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	sort.Slice(summary.Results, func(i, j int) bool { return summary.Results[i].Path < summary.Results[j].Path })
	sort.Slice(summary.Failures, func(i, j int) bool { return summary.Failures[i].Path < summary.Failures[j].Path })
	return summary, nil
}

// Discover expands paths into a sorted, de-duplicated list of header
// inputs. Directories are walked recursively, skipping hidden directories.
// Explicit file paths are kept when their extension is supported.
func Discover(paths, extensions, excludeFiles []string) ([]string, error) {
	excludes, err := compileGlobs(excludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	accept := func(path string) bool {
		if !header.IsSupportedPath(path) {
			return false
		}
		if len(exts) > 0 && !exts[strings.ToLower(filepath.Ext(path))] {
			return false
		}
		return !excluded(excludes, path)
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "input path"), errors.CtxPath, root)
		}
		if !info.IsDir() {
			if !header.IsSupportedPath(root) {
				return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported header input"), errors.CtxPath, root)
			}
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if accept(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "walk input directory"), errors.CtxPath, root)
		}
	}

	sort.Strings(files)
	return files, nil
}

func excluded(globs []glob.Glob, path string) bool {
	base := filepath.Base(path)
	slashed := util.NormalizePatternPath(path)
	for _, g := range globs {
		if g.Match(base) || g.Match(slashed) {
			return true
		}
	}
	return false
}
