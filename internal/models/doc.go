// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

/*
Package models defines the request and response shapes shared by the query
engine, the fare estimator and the HTTP layer.

Analytics results (KPIs, Boxplot, Histogram, Heatmap, ...) are produced by
database.Engine and serialized unchanged inside APIResponse.Data. Field names
in JSON tags are part of the dashboard contract and must not change.
*/
package models
