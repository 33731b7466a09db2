// Package fakeapi is an in-memory Auth and Content API. It backs the client
// tests and the `cmsctl dev` command.
//
// Option searches answer GET requests with a {"data": [...]} envelope and
// support search and limit query parameters. Matches whose label starts with
// the query rank ahead of substring matches.
package fakeapi
