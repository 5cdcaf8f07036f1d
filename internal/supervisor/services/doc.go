// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

/*
Package services adapts long-running components to suture.Service.

A suture service blocks in Serve(ctx) until ctx is cancelled. The return
value tells the supervisor what happened:

	nil        stopped cleanly, not restarted
	error      crashed, restarted with backoff
	ctx.Err()  shutdown requested

HTTPServerService translates the ListenAndServe/Shutdown pair of
*http.Server into that contract:

	server := &http.Server{Addr: ":8000", Handler: router}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, 10*time.Second))

database.WorkerPool implements Serve itself and needs no wrapper.
*/
package services
