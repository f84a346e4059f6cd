// Package sandbox owns the process's single sandbox engine instance.
//
// Manager memoizes the engine boot so every caller shares one instance, and
// mounts the project tree into it at most once. ReadyWatcher tracks the
// most recent server-ready notification from that instance.
//
// Example Usage:
//
//	mgr := sandbox.NewManager(local.New(cfg), logger)
//	inst, err := mgr.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	if err := mgr.Mount(ctx, inst, tree); err != nil {
//		return err
//	}
package sandbox
