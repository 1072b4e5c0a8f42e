// Package subtrees orchestrates gst commands over the mappings in the manifest.
//
// Service dispatches pull and push to the strategy recorded for each mapping
// and aggregates per mapping outcomes into a Report. Initializer publishes
// local directories as a new remote repository and starts tracking them.
package subtrees
