// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/taxidash/internal/metrics"
)

// Partition identifies one monthly storage unit of the trip dataset.
type Partition struct {
	Year  int
	Month int
}

// PartitionOf returns the partition holding pickups at t.
func PartitionOf(t time.Time) Partition {
	return Partition{Year: t.Year(), Month: int(t.Month())}
}

func (p Partition) String() string {
	return fmt.Sprintf("year=%d/month=%d", p.Year, p.Month)
}

// Before reports whether p is an earlier month than q.
func (p Partition) Before(q Partition) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// next returns the following calendar month.
func (p Partition) next() Partition {
	if p.Month == 12 {
		return Partition{Year: p.Year + 1, Month: 1}
	}
	return Partition{Year: p.Year, Month: p.Month + 1}
}

// PartitionSet is the result of pruning. Exactly one form is in use:
//
//   - All: no pruning, every partition is read
//   - Partitions: an explicit calendar enumeration (both date bounds known)
//   - Lower and/or Upper: an open-ended range (one date bound known)
type PartitionSet struct {
	All        bool
	Partitions []Partition
	Lower      *Partition
	Upper      *Partition
}

// Contains reports whether p is selected by the set.
func (s PartitionSet) Contains(p Partition) bool {
	if s.All {
		return true
	}
	if s.Lower != nil || s.Upper != nil {
		if s.Lower != nil && p.Before(*s.Lower) {
			return false
		}
		if s.Upper != nil && s.Upper.Before(p) {
			return false
		}
		return true
	}
	for _, q := range s.Partitions {
		if q == p {
			return true
		}
	}
	return false
}

func (s PartitionSet) String() string {
	switch {
	case s.All:
		return "all"
	case s.Lower != nil && s.Upper != nil:
		return fmt.Sprintf("%s..%s", s.Lower, s.Upper)
	case s.Lower != nil:
		return fmt.Sprintf(">=%s", s.Lower)
	case s.Upper != nil:
		return fmt.Sprintf("<=%s", s.Upper)
	}
	parts := make([]string, len(s.Partitions))
	for i, p := range s.Partitions {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DataFile is one Parquet file and the partition directory it lives in.
type DataFile struct {
	Partition Partition
	Path      string
}

// Catalog knows the physical layout of the dataset:
// <root>/year=YYYY/month=M/*.parquet.
type Catalog struct {
	root string
}

// NewCatalog returns a catalog rooted at root. The directory need not exist.
func NewCatalog(root string) *Catalog {
	return &Catalog{root: root}
}

// Root returns the dataset root directory.
func (c *Catalog) Root() string {
	return c.root
}

// Exists reports whether the dataset root is present.
func (c *Catalog) Exists() bool {
	info, err := os.Stat(c.root)
	return err == nil && info.IsDir()
}

// PartitionsForDateRange maps inclusive pickup bounds to the partitions that
// may hold matching rows. Both bounds enumerate every calendar month between
// them; a single bound selects every partition on its open side.
func (c *Catalog) PartitionsForDateRange(from, to *time.Time) PartitionSet {
	switch {
	case from == nil && to == nil:
		return PartitionSet{All: true}
	case from != nil && to != nil:
		first, last := PartitionOf(*from), PartitionOf(*to)
		set := PartitionSet{Partitions: []Partition{}}
		for p := first; !last.Before(p); p = p.next() {
			set.Partitions = append(set.Partitions, p)
		}
		return set
	case from != nil:
		lower := PartitionOf(*from)
		return PartitionSet{Lower: &lower}
	default:
		upper := PartitionOf(*to)
		return PartitionSet{Upper: &upper}
	}
}

// Discover lists the partitions present under the root in ascending order.
// A missing root is an empty dataset, not an error.
func (c *Catalog) Discover(ctx context.Context) ([]Partition, error) {
	years, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to list %s: %v", ErrDatasetUnavailable, c.root, err)
	}

	var partitions []Partition
	for _, yearDir := range years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		year, ok := parseHiveKey(yearDir, "year")
		if !ok {
			continue
		}
		months, err := os.ReadDir(filepath.Join(c.root, yearDir.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list %s: %v", ErrDatasetUnavailable, yearDir.Name(), err)
		}
		for _, monthDir := range months {
			month, ok := parseHiveKey(monthDir, "month")
			if !ok || month < 1 || month > 12 {
				continue
			}
			partitions = append(partitions, Partition{Year: year, Month: month})
		}
	}

	sort.Slice(partitions, func(i, j int) bool { return partitions[i].Before(partitions[j]) })
	partitions = slices.Compact(partitions)
	metrics.PartitionsAvailable.Set(float64(len(partitions)))
	return partitions, nil
}

// Files returns the Parquet files of every discovered partition in set,
// ordered by partition then path.
func (c *Catalog) Files(ctx context.Context, set PartitionSet) ([]DataFile, error) {
	partitions, err := c.Discover(ctx)
	if err != nil {
		return nil, err
	}

	var files []DataFile
	for _, p := range partitions {
		if !set.Contains(p) {
			continue
		}
		paths, err := c.partitionFiles(p)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			files = append(files, DataFile{Partition: p, Path: path})
		}
	}
	return files, nil
}

// partitionFiles globs the Parquet files of p. Month directories may be
// written with or without zero padding.
func (c *Catalog) partitionFiles(p Partition) ([]string, error) {
	var paths []string
	for _, dir := range []string{
		fmt.Sprintf("month=%d", p.Month),
		fmt.Sprintf("month=%02d", p.Month),
	} {
		matches, err := filepath.Glob(filepath.Join(c.root, fmt.Sprintf("year=%d", p.Year), dir, "*.parquet"))
		if err != nil {
			return nil, fmt.Errorf("failed to glob partition %s: %w", p, err)
		}
		paths = append(paths, matches...)
		if p.Month >= 10 {
			break // both spellings are the same directory
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// parseHiveKey parses a "key=value" directory name into an integer.
func parseHiveKey(entry fs.DirEntry, key string) (int, bool) {
	if !entry.IsDir() {
		return 0, false
	}
	value, found := strings.CutPrefix(entry.Name(), key+"=")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}
