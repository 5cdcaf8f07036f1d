// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"fmt"
	"strings"

	"github.com/tomtom215/taxidash/internal/database/query"
)

// TripColumns is the fixed projection of the trip dataset.
var TripColumns = []string{
	"tpep_pickup_datetime",
	"tpep_dropoff_datetime",
	"PULocationID",
	"DOLocationID",
	"passenger_count",
	"trip_distance",
	"fare_amount",
	"tip_amount",
	"total_amount",
	"payment_type",
	"trip_minutes",
	"hour",
	"dow",
	"year",
	"month",
	"fare_per_mile",
	"tip_pct",
}

// tripColumnTypes gives the typed NULL used when the dataset has no files.
var tripColumnTypes = map[string]string{
	"tpep_pickup_datetime":  "TIMESTAMP",
	"tpep_dropoff_datetime": "TIMESTAMP",
	"PULocationID":          "INTEGER",
	"DOLocationID":          "INTEGER",
	"passenger_count":       "DOUBLE",
	"trip_distance":         "DOUBLE",
	"fare_amount":           "DOUBLE",
	"tip_amount":            "DOUBLE",
	"total_amount":          "DOUBLE",
	"payment_type":          "INTEGER",
	"trip_minutes":          "DOUBLE",
	"hour":                  "INTEGER",
	"dow":                   "INTEGER",
	"year":                  "INTEGER",
	"month":                 "INTEGER",
	"fare_per_mile":         "DOUBLE",
	"tip_pct":               "DOUBLE",
}

// Row identity columns produced by read_parquet. They make ordering and
// sampling independent of scan parallelism.
const (
	colFilename      = "filename"
	colFileRowNumber = "file_row_number"
)

// SampleSeed seeds the reproducible row sampling.
const SampleSeed = 42

// Stage is one step of a Plan.
type Stage interface {
	Kind() string
	String() string
}

// ScanStage reads the Parquet files of the pruned partitions.
type ScanStage struct {
	Partitions PartitionSet
	Files      []DataFile
}

func (s ScanStage) Kind() string { return "scan" }

func (s ScanStage) String() string {
	return fmt.Sprintf("scan(partitions=%s, files=%d)", s.Partitions, len(s.Files))
}

// ProjectStage keeps only the listed columns plus row identity.
type ProjectStage struct {
	Columns []string
}

func (s ProjectStage) Kind() string { return "project" }

func (s ProjectStage) String() string {
	return fmt.Sprintf("project(%d columns)", len(s.Columns))
}

// FilterStage applies one row predicate.
type FilterStage struct {
	Name      string
	Predicate query.Predicate
}

func (s FilterStage) Kind() string { return "filter" }

func (s FilterStage) String() string {
	return fmt.Sprintf("filter[%s](%s)", s.Name, s.Predicate)
}

// SampleStage keeps a reproducible Bernoulli sample at fraction
// min(1, N/rows), then caps it at N rows.
type SampleStage struct {
	N    int
	Seed int
}

func (s SampleStage) Kind() string { return "sample" }

func (s SampleStage) String() string {
	return fmt.Sprintf("sample(n=%d, seed=%d)", s.N, s.Seed)
}

// Plan is an immutable, deferred description of the filtered trip relation.
// Nothing is read until an Engine operation renders it with SQL and runs it.
type Plan struct {
	scan    ScanStage
	project ProjectStage
	filters []FilterStage
	sample  *SampleStage
}

// Stages returns the stages in execution order.
func (p *Plan) Stages() []Stage {
	stages := make([]Stage, 0, len(p.filters)+3)
	stages = append(stages, p.scan, p.project)
	for _, f := range p.filters {
		stages = append(stages, f)
	}
	if p.sample != nil {
		stages = append(stages, *p.sample)
	}
	return stages
}

func (p *Plan) String() string {
	stages := p.Stages()
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

// Files returns the Parquet files the plan reads.
func (p *Plan) Files() []DataFile {
	return append([]DataFile(nil), p.scan.Files...)
}

// IsEmpty reports whether the plan reads no files at all.
func (p *Plan) IsEmpty() bool {
	return len(p.scan.Files) == 0
}

// Sampled reports whether the plan ends with a SampleStage.
func (p *Plan) Sampled() bool {
	return p.sample != nil
}

// Partitions splits the plan into one sub-plan per partition so aggregations
// can run partition-local work in parallel. Sampling depends on the total
// row count, so a sampled plan and an empty plan are returned whole.
func (p *Plan) Partitions() []*Plan {
	if p.sample != nil || len(p.scan.Files) == 0 {
		return []*Plan{p}
	}

	var plans []*Plan
	var current *Plan
	for _, f := range p.scan.Files {
		if current == nil || current.scan.Files[0].Partition != f.Partition {
			current = &Plan{
				scan: ScanStage{
					Partitions: PartitionSet{Partitions: []Partition{f.Partition}},
				},
				project: p.project,
				filters: p.filters,
			}
			plans = append(plans, current)
		}
		current.scan.Files = append(current.scan.Files, f)
	}
	return plans
}

// SQL renders the relation as a SELECT with its bind arguments. The result
// has the projected columns plus filename and file_row_number and can be
// used as a subquery or CTE.
func (p *Plan) SQL() (string, []interface{}) {
	wb := query.NewWhereBuilder()
	for _, f := range p.filters {
		wb.Add(f.Predicate)
	}
	where, args := wb.Build()

	base := fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE %s",
		strings.Join(p.project.Columns, ", "), colFilename, colFileRowNumber, p.source(), where)

	if p.sample == nil {
		return base, args
	}

	// hash() of the row identity gives a per-row uniform draw that does not
	// depend on scan order.
	sampled := fmt.Sprintf(`WITH filtered AS (%s),
stats AS (SELECT COUNT(*) AS n FROM filtered)
SELECT filtered.* FROM filtered, stats
WHERE hash(%s || ':' || CAST(%s AS VARCHAR) || ':' || CAST(? AS VARCHAR)) %% 1000000
	< LEAST(1.0, CAST(? AS DOUBLE) / GREATEST(stats.n, 1)) * 1000000
ORDER BY %s, %s
LIMIT ?`, base, colFilename, colFileRowNumber, colFilename, colFileRowNumber)

	args = append(args, p.sample.Seed, p.sample.N, p.sample.N)
	return sampled, args
}

// source renders the FROM target: the pruned Parquet files, or a typed
// zero-row relation when there is nothing to read.
func (p *Plan) source() string {
	if len(p.scan.Files) == 0 {
		cols := make([]string, 0, len(TripColumns)+2)
		for _, c := range TripColumns {
			cols = append(cols, fmt.Sprintf("CAST(NULL AS %s) AS %s", tripColumnTypes[c], c))
		}
		cols = append(cols,
			"CAST(NULL AS VARCHAR) AS "+colFilename,
			"CAST(NULL AS BIGINT) AS "+colFileRowNumber)
		return fmt.Sprintf("(SELECT %s WHERE false) AS empty_trips", strings.Join(cols, ", "))
	}

	paths := make([]string, len(p.scan.Files))
	for i, f := range p.scan.Files {
		paths[i] = f.Path
	}
	// Files carry their own year/month columns; hive parsing would clash with them.
	return fmt.Sprintf("read_parquet(%s, filename=true, file_row_number=true, hive_partitioning=false)",
		query.LiteralList(paths))
}
