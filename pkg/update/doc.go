// Package update implements the publish/subscribe plumbing that keeps part
// views in sync with their models. A Manager belongs to one Source and
// delivers change notifications, tagged with a Kind mask, to the Listeners
// registered on it. Managers can be chained to a parent so that a batch
// opened on a child also holds back the parent's deliveries.
package update
