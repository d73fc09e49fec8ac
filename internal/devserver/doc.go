// Package devserver serves the manager and preview in development mode.
// Both targets are compiled with their builder's Start operation, which
// keeps watching sources and serves the compiled assets from the router.
package devserver
