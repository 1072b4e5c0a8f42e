// Package strategy implements the two ways gst moves a mapping between the
// parent repository and its remote: git subtree merges and directory copies.
package strategy
