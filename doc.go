// Package wirebox is a hierarchical dependency injection library.
//
// A [Registry] stores factories and hooks. A [Container] caches resolved
// instances and may be branched into child containers that read through to
// their parent but write only into their own cache. Dependencies are
// resolved with [Container.Get], [Container.Find], or injected into function
// calls with [Container.Call].
//
// Factories may be registered as asynchronous. The dependency analyzer walks
// a factory chain ahead of resolution, detects cycles, and decides whether a
// synchronous caller must bridge execution through the shared resolver
// worker so that Get and Await always agree on outcome.
package wirebox
