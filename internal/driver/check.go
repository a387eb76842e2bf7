package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"kplc/internal/diag"
	"kplc/internal/observ"
	"kplc/internal/project"
	"kplc/internal/script"
	"kplc/internal/source"
	"kplc/internal/trace"
)

// Options configures CheckFiles.
type Options struct {
	Script script.Options
	// Jobs limits parallel workers; <= 0 uses GOMAXPROCS.
	Jobs     int
	Cache    *DiskCache
	Progress ProgressSink
	// BaseDir is used to shorten displayed paths.
	BaseDir string
}

// FileResult is the outcome of checking one script.
type FileResult struct {
	Path        string
	FileSet     *source.FileSet
	Diagnostics []diag.Diagnostic
	Mismatches  int
	Unexpected  int
	Halted      bool
	Steps       int
	Cached      bool
	// Replay is nil when the result came from the cache or loading failed.
	Replay *script.Result
	// Err is set when the script could not be loaded or replayed.
	Err    error
	Timing observ.Report
}

// Failed reports whether the file should fail the run.
func (r *FileResult) Failed() bool {
	return r.Err != nil || r.Unexpected > 0 || r.Mismatches > 0
}

// Result aggregates all files in input order.
type Result struct {
	Files  []FileResult
	Timing observ.Report
}

// Failed reports whether any file failed.
func (r *Result) Failed() bool {
	for i := range r.Files {
		if r.Files[i].Failed() {
			return true
		}
	}
	return false
}

// ErrorCount sums error diagnostics and load failures over all files.
func (r *Result) ErrorCount() int {
	n := 0
	for i := range r.Files {
		if r.Files[i].Err != nil {
			n++
		}
		for _, d := range r.Files[i].Diagnostics {
			if d.Severity >= diag.SevError {
				n++
			}
		}
	}
	return n
}

// ListScripts expands directories into the sorted replay scripts they
// contain. Plain file arguments are kept as given.
func ListScripts(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, script.Ext) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

// CheckFiles replays every script under paths in parallel. Each file gets
// its own FileSet, symbol table and resolver. Per-file failures are
// recorded in the result; the returned error is for cancellation or an
// unusable input list.
func CheckFiles(ctx context.Context, paths []string, opts Options) (*Result, error) {
	timer := observ.NewTimer()
	listIdx := timer.Begin("list")
	files, err := ListScripts(paths)
	timer.End(listIdx, fmt.Sprintf("%d scripts", len(files)))
	if err != nil {
		return nil, err
	}

	tracer := opts.Script.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
		opts.Script.Tracer = tracer
	}
	runSpan := trace.Begin(tracer, trace.ScopeDriver, "check", 0)

	for _, f := range files {
		emit(opts.Progress, Event{File: f, Stage: StageLoad, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]FileResult, len(files))

	checkIdx := timer.Begin("check")
	if len(files) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(files)))
		for i, path := range files {
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				fr, err := checkOne(gctx, path, &opts, runSpan.ID())
				results[i] = fr
				return err
			})
		}
		if err := g.Wait(); err != nil {
			runSpan.End("cancelled")
			return nil, err
		}
	}
	timer.End(checkIdx, fmt.Sprintf("jobs=%d", jobs))
	runSpan.End(fmt.Sprintf("%d scripts", len(files)))
	emit(opts.Progress, Event{Stage: StageReplay, Status: StatusDone})

	return &Result{Files: results, Timing: timer.Report()}, nil
}

// checkOne never returns per-file failures as errors, only cancellation.
func checkOne(ctx context.Context, path string, opts *Options, parent uint64) (FileResult, error) {
	start := time.Now()
	span := trace.Begin(opts.Script.Tracer, trace.ScopeFile, "script", parent).WithExtra("path", path)
	timer := observ.NewTimer()
	fileSet := source.NewFileSetWithBase(opts.BaseDir)
	fr := FileResult{Path: path, FileSet: fileSet}

	fail := func(stage Stage, err error) (FileResult, error) {
		fr.Err = err
		fr.Timing = timer.Report()
		span.End("error")
		emit(opts.Progress, Event{File: path, Stage: stage, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return fr, nil
	}

	emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
	loadIdx := timer.Begin("load")
	s, err := script.Load(fileSet, path)
	if err != nil {
		timer.End(loadIdx, "failed")
		return fail(StageLoad, err)
	}
	key, err := cacheKey(fileSet, s, opts.Script)
	timer.End(loadIdx, "")
	if err != nil {
		return fail(StageLoad, err)
	}

	if opts.Cache != nil {
		var payload DiskPayload
		if ok, err := opts.Cache.Get(key, &payload); err == nil && ok {
			if p := s.SourcePath(); p != "" {
				if _, err := fileSet.Load(p); err != nil {
					return fail(StageLoad, err)
				}
			}
			fromPayload(&payload, fileSet, &fr)
			fr.Cached = true
			fr.Timing = timer.Report()
			span.End("cached")
			emit(opts.Progress, Event{File: path, Stage: StageReplay, Status: StatusCached, Elapsed: time.Since(start)})
			return fr, nil
		}
	}

	emit(opts.Progress, Event{File: path, Stage: StageReplay, Status: StatusWorking})
	replayIdx := timer.Begin("replay")
	res, err := script.Run(ctx, fileSet, s, opts.Script)
	if err != nil {
		timer.End(replayIdx, "failed")
		if ctx.Err() != nil {
			span.End("cancelled")
			return fr, ctx.Err()
		}
		return fail(StageReplay, err)
	}
	timer.End(replayIdx, fmt.Sprintf("%d steps", res.Steps))

	fr.Replay = res
	fr.Diagnostics = res.Bag.Items()
	fr.Mismatches = len(res.Mismatches)
	fr.Unexpected = res.Unexpected
	fr.Halted = res.Halted
	fr.Steps = res.Steps
	fr.Timing = timer.Report()

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, toPayload(&fr)); err != nil {
			trace.Point(opts.Script.Tracer, trace.ScopeFile, "cache-put", err.Error(), nil)
		}
	}

	status := StatusDone
	if fr.Failed() {
		status = StatusError
	}
	span.End(string(status))
	emit(opts.Progress, Event{File: path, Stage: StageReplay, Status: status, Elapsed: time.Since(start)})
	return fr, nil
}

// cacheKey digests everything that influences a replay outcome. Cached
// diagnostics refer to files by path, so the script and source paths are
// part of the key.
func cacheKey(fileSet *source.FileSet, s *script.Script, opts script.Options) (project.Digest, error) {
	content := project.Digest(fileSet.Get(s.File).Hash)
	var src project.Digest
	srcPath := s.SourcePath()
	if srcPath != "" {
		data, err := os.ReadFile(srcPath) // #nosec G304 -- path comes from the script
		if err != nil {
			return project.Digest{}, fmt.Errorf("%s: source %q: %w", s.Path, s.Source, err)
		}
		src = project.HashBytes(data)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "schema=%d policy=%s fold=%t max=%d dedup=%t\n",
		diskCacheSchemaVersion, opts.Policy, opts.CaseInsensitive, opts.MaxDiagnostics, opts.Dedup)
	fmt.Fprintf(&b, "script=%s\nsource=%s\n", fileSet.Get(s.File).Path, srcPath)
	if opts.Prelude == nil {
		b.WriteString("prelude=builtin\n")
	} else {
		for _, e := range opts.Prelude {
			fmt.Fprintf(&b, "prelude=%s:%s\n", e.Kind, e.Name)
		}
	}
	return project.Combine(content, src, project.HashBytes([]byte(b.String()))), nil
}
