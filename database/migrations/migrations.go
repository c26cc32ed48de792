// Package migrations holds the versioned schema changes. Each file calls
// migration.Register from init(), so importing the package for its side
// effects is enough to make them visible to the runner.
package migrations
