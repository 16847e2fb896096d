// Package inbox processes spreadsheets dropped into a watched directory.
//
// Layout under the root directory:
//
//	import/            incoming spreadsheets
//	import/processed/  inputs that were summarized
//	import/failed/     inputs that could not be summarized
//	export/            summary workbooks
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cleared-dev/monthsum/internal/pipeline"
	"github.com/cleared-dev/monthsum/internal/source"
)

const (
	importDir    = "import"
	processedDir = "import/processed"
	failedDir    = "import/failed"
	exportDir    = "export"
)

// FileInfo describes a spreadsheet waiting in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// ImportDir returns <root>/import.
func ImportDir(root string) string { return filepath.Join(root, importDir) }

// ExportDir returns <root>/export.
func ExportDir(root string) string { return filepath.Join(root, exportDir) }

// Scan returns the files in <root>/import/ accepted by supported. Hidden
// files and directories are skipped.
func Scan(root string, supported func(name string) bool) ([]FileInfo, error) {
	dir := ImportDir(root)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if supported != nil && !supported(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	return move(root, fileName, processedDir)
}

// MarkFailed moves a file from import/ to import/failed/.
func MarkFailed(root, fileName string) error {
	return move(root, fileName, failedDir)
}

func move(root, fileName, sub string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, sub)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating %s dir: %w", sub, err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", fileName, sub, err)
	}
	return nil
}

// Report lists the outcome of one ProcessAll pass.
type Report struct {
	Processed []string
	Failed    []string
}

// Processor summarizes the backlog in an inbox root.
type Processor struct {
	root     string
	pipeline *pipeline.Service
	suffix   string
	logger   *zap.Logger
}

// NewProcessor creates a Processor writing "<base>-<suffix>.xlsx" files to export/.
func NewProcessor(root string, svc *pipeline.Service, suffix string, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{root: root, pipeline: svc, suffix: suffix, logger: logger}
}

// Root returns the inbox root directory.
func (p *Processor) Root() string { return p.root }

// ProcessAll summarizes every supported file currently in import/. A file
// that fails is moved to import/failed/ and does not stop the pass.
func (p *Processor) ProcessAll(ctx context.Context) (Report, error) {
	var rep Report

	files, err := Scan(p.root, p.pipeline.Codecs().Supported)
	if err != nil {
		return rep, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		out, err := p.ProcessFile(ctx, f)
		if err != nil {
			p.logger.Error("summarize failed", zap.String("file", f.Name), zap.Error(err))
			if merr := MarkFailed(p.root, f.Name); merr != nil {
				return rep, merr
			}
			rep.Failed = append(rep.Failed, f.Name)
			continue
		}
		if err := MarkProcessed(p.root, f.Name); err != nil {
			return rep, err
		}
		p.logger.Info("inbox file processed", zap.String("file", f.Name), zap.String("output", out))
		rep.Processed = append(rep.Processed, f.Name)
	}
	return rep, nil
}

// ProcessFile summarizes one file into export/ and returns the written path.
func (p *Processor) ProcessFile(ctx context.Context, f FileInfo) (string, error) {
	data, err := source.ReadAll(ctx, f.Path)
	if err != nil {
		return "", err
	}
	out, err := p.pipeline.Process(f.Name, data, pipeline.FormatXLSX)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(ExportDir(p.root), source.OutputName(f.Name, p.suffix, pipeline.Extension(pipeline.FormatXLSX)))
	if err := source.WriteAll(dst, out); err != nil {
		return "", err
	}
	return dst, nil
}
