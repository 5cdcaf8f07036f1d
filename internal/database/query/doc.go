// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

// Package query provides SQL building helpers for the trip query engine.
//
// Predicates are always parameterized. The only values rendered inline are
// file paths and zone names, which DuckDB cannot take as bind parameters
// inside read_parquet() or a VALUES list; those go through Literal.
//
//	wb := query.NewWhereBuilder()
//	wb.Add(query.AtLeast("tpep_pickup_datetime", from))
//	wb.Add(query.Between("hour", 7, 9))
//	wb.Add(query.InInts("payment_type", []int{1, 2}))
//	whereClause, args := wb.Build()
//	// tpep_pickup_datetime >= ? AND hour BETWEEN ? AND ? AND payment_type IN (?, ?)
package query
