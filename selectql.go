// Package selectql extracts structured data from HTML using declarative,
// JSON-encoded templates. A template names the elements to select, how to
// filter them, and how to project each match into an output record, so no
// per-site scraping code is required.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, prometheus/, http/).
package selectql
