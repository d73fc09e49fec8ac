// Package staticfiles stages the output directory of a static build: it
// clears it, writes the default assets and copies user static directories.
package staticfiles
