// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package supervisor runs Cadence's long-lived components under a suture v4
supervisor tree.

Tree layout:

	cadence (root)
	├── storage-layer
	│   └── cache-gc          periodic Badger value-log GC
	└── api-layer
	    └── http-server       chi router

Services restart with suture's backoff when Serve returns an error. Supervisor
events are logged through sutureslog into the zerolog logger, using
logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddStorageService(services.NewCacheGCService(respCache, 10*time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)

Service wrappers live in the services subpackage.
*/
package supervisor
