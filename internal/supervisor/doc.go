// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

/*
Package supervisor runs the long-lived parts of taxidash under a suture v4
supervisor tree.

	taxidash
	├── data-layer
	│   └── engine-worker-pool(N)   database.WorkerPool
	└── api-layer
	    └── http-server             services.HTTPServerService

Crashed services are restarted with suture's decaying failure counter:
every failure adds one, the count halves every FailureDecay seconds, and
once it passes FailureThreshold the supervisor waits FailureBackoff before
the next restart. Supervisor events go to the zerolog-backed slog logger
through sutureslog.

Cancelling the context passed to Serve shuts the tree down. Each service
gets ShutdownTimeout to return; the HTTP server drains in-flight requests
and the worker pool finishes running partition tasks before closing.
Anything still running afterwards is listed by UnstoppedServiceReport.

DuckDB itself is not supervised: it is an embedded library whose
connection is owned by database.DB and closed by main after the tree stops.
*/
package supervisor
