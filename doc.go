// Package diskor provides a storage configuration service for an operating
// system installer.
//
// The service keeps a storage model probed from a backend, a set of
// partitioning plans, and the zFCP device records of the installation. Long
// operations run as tasks on a worker pool and can be observed, cancelled and
// awaited. The modules are published on D-Bus by the bus package; embedding
// hosts use the Service façade exposed by the root package:
//
//	srv, _ := diskor.New(ctx)
//	_ = srv.Start(ctx)
//	model, _ := srv.Reset(ctx, time.Minute)
//	handle, _ := srv.Storage().CreatePartitioning(ctx, "AUTOMATIC")
//	_ = srv.Storage().ApplyPartitioning(ctx, handle)
//
// For more details see the individual sub-packages.
package diskor
