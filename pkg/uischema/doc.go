// Package uischema loads the presentation side of the CMS forms: labels,
// placeholders, helper texts, widgets and field order. Validation lives in the
// domain packages; this package only describes how each field is shown, so
// the terminal front end and any other renderer stay in sync.
package uischema
