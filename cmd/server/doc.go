// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

/*
Package main is the taxidash server: a JSON API over a partitioned NYC taxi
trip dataset with a trained fare estimator.

Startup order:

 1. Configuration (koanf: defaults, optional YAML file, environment)
 2. Logging (zerolog, JSON or console)
 3. DuckDB connection used to scan Parquet partitions
 4. Zone reference service, partition catalog and worker pool
 5. Aggregation engine and fare estimator (bundle preloaded when MODEL_PRELOAD=true)
 6. Chi router and HTTP server
 7. Supervisor tree running the pool and the server

SIGINT or SIGTERM cancels the tree. The server drains for
SHUTDOWN_TIMEOUT, the pool finishes queued partition work, and the
database is closed last.

Example:

	export TRIPS_ROOT=/data/parquet/trips
	export RAW_DATA_DIR=/data/raw
	export ARTIFACTS_DIR=/data/artifacts
	export MODEL_PATH=/data/artifacts/fare_model.json
	./taxidash
*/
package main
