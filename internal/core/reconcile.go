package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/illarion/pkgdb/internal/ledger"
	"github.com/illarion/pkgdb/internal/search"
	"github.com/illarion/pkgdb/internal/usage"
)

// ErrNoStorage is returned when a package has no resolvable storage path.
var ErrNoStorage = errors.New("no storage for package")

// Discover walks the storage roots and returns every package found, in
// walk order.
func (d *LocalDatabase) Discover(ctx context.Context, isValid search.NameValidator) ([]search.Package, error) {
	var found []search.Package
	err := d.Walk(ctx, isValid, func(pkg search.Package) error {
		found = append(found, pkg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Sync adds every package found on disk but missing from the index, in
// walk order, and returns the added names.
func (d *LocalDatabase) Sync(ctx context.Context, isValid search.NameValidator) ([]string, error) {
	found, err := d.Discover(ctx, isValid)
	if err != nil {
		return nil, err
	}

	var added []string
	for _, pkg := range found {
		if d.store.Contains(pkg.Name) {
			continue
		}
		if err := d.store.Add(pkg.Name); err != nil {
			return added, fmt.Errorf("failed to add %s: %w", pkg.Name, err)
		}
		d.logger.Info("package added from disk", zap.String("name", pkg.Name), zap.String("path", pkg.Path))
		added = append(added, pkg.Name)
	}
	return added, nil
}

// Diff renders a unified diff from the index to the packages on disk,
// one name per line, both sides sorted. It is empty when they agree.
func (d *LocalDatabase) Diff(ctx context.Context, isValid search.NameValidator) (string, error) {
	found, err := d.Discover(ctx, isValid)
	if err != nil {
		return "", err
	}

	onDisk := make([]string, 0, len(found))
	for _, pkg := range found {
		onDisk = append(onDisk, pkg.Name)
	}
	return unifiedDiff("index", "disk", d.store.List(), onDisk), nil
}

// Scan records the packages on disk into l and returns what changed since
// the previous scan.
func (d *LocalDatabase) Scan(ctx context.Context, l *ledger.Ledger, isValid search.NameValidator) (ledger.Changes, error) {
	if err := l.Initialize(); err != nil {
		return ledger.Changes{}, fmt.Errorf("failed to initialize ledger: %w", err)
	}
	previous, err := l.Entries()
	if err != nil {
		return ledger.Changes{}, fmt.Errorf("failed to read ledger: %w", err)
	}

	found, err := d.Discover(ctx, isValid)
	if err != nil {
		return ledger.Changes{}, err
	}
	current := make([]ledger.Entry, 0, len(found))
	for _, pkg := range found {
		current = append(current, ledger.Entry{Name: pkg.Name, Path: pkg.Path, Time: pkg.Time})
	}

	changes := ledger.Compare(previous, current)
	if err := l.Record(current, time.Now()); err != nil {
		return ledger.Changes{}, fmt.Errorf("failed to record scan: %w", err)
	}
	d.logger.Debug("scan recorded",
		zap.Int("packages", len(current)),
		zap.Int("added", len(changes.Added)),
		zap.Int("removed", len(changes.Removed)),
		zap.Int("changed", len(changes.Changed)))
	return changes, nil
}

// Usage measures the storage directory of one package.
func (d *LocalDatabase) Usage(ctx context.Context, name string) (usage.Usage, error) {
	storage, ok := d.GetPackageStorage(name)
	if !ok {
		return usage.Usage{}, fmt.Errorf("%w: %s", ErrNoStorage, name)
	}
	return usage.Measure(ctx, storage.Path())
}

// unifiedDiff generates a unified diff of two name lists using go-diff.
func unifiedDiff(fromName, toName string, from, to []string) string {
	fromText := sortedLines(from)
	toText := sortedLines(to)
	if fromText == toText {
		return ""
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff, one package per line
	a, b, lineArray := dmp.DiffLinesToChars(fromText, toText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(fromText, diffs)
	if len(patches) == 0 {
		return ""
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- %s\n", fromName))
	result.WriteString(fmt.Sprintf("+++ %s\n", toName))
	result.WriteString(dmp.PatchToText(patches))
	return result.String()
}

func sortedLines(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	var b strings.Builder
	for _, name := range sorted {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return b.String()
}
