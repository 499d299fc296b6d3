// Package router resolves page paths against a route table and runs the
// guards attached to the matched records.
//
// # Navigation
//
// [Router.Navigate] is one navigation attempt: resolve the target, then call
// BeforeEnter on every record in the matched chain that the navigation is
// entering, outermost first. Each guard settles before the next one runs.
// A guard answers with a [Decision]: [Continue], [Abort] or [Redirect].
// Redirects restart the navigation at the new target, up to MaxRedirects.
//
// # Route table
//
// Records with children are layouts: they cannot be matched directly, only
// through a child. A child path beginning with "/" is absolute; other child
// paths are joined to the parent. The pattern "/:pathMatch(.*)*" matches
// any path not claimed by another record.
//
// # What this package must NOT do
//
//   - Know about users, sessions or the identity service.
//   - Render views (it only reports which record was reached).
package router
