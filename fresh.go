// Package fresh discovers the pages of a documentation site and turns each
// page into clean Markdown.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., http/, goquery/, sqlite/), and the
// orchestration that ties them together lives in crawl/.
package fresh

// Version is the released version of fresh. It is sent in the User-Agent
// header of every request.
const Version = "0.1.0"
