// Package inspect classifies the current screen of the host's upload wizard
// from a content snapshot.
//
// Everything in this package is pure: a Snapshot is an immutable parse of the
// page and content-frame markup taken at one moment, and Classify and
// IsAuthorizedContext are functions of that snapshot and a Keywords table.
// Identical snapshots always yield identical results.
//
// # Classification order
//
// Later wizard screens often keep text of earlier screens around, so the
// checks run from the most specific screen to the least specific one:
//
//  1. DescriptionScreen: an input or textarea whose name or id contains a
//     description needle ("omschrijving")
//  2. FileUploadScreen: an input of type file
//  3. InitialChoice: all three choice options present and no file input
//  4. ControlStep: a review marker plus a submit control
//  5. Unknown, or OffTarget when the guard does not recognise the page
//
// A snapshot that could not be taken (nil, or no readable target scope)
// classifies as Unknown. Classify never panics and never returns an error.
//
// # Guard
//
// IsAuthorizedContext reports whether any known section header is present in
// the page or frame text. Callers re-run it immediately before every
// state-changing action; results are never cached.
package inspect
