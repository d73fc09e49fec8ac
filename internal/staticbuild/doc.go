// Package staticbuild orchestrates a static docshell build: it stages the
// output directory, resolves presets, compiles the manager and the preview
// and writes the HTML pages and project metadata.
//
// A build moves through the states
//
//	init → staging_output → resolving_presets → compiling_manager →
//	compiling_preview → done
//
// and enters failed from any of them. Each state is executed as a stage whose
// duration and result are recorded in the BuildReport and forwarded to the
// configured BuildObserver.
package staticbuild
