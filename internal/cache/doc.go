// Package cache manages the build cache directory threaded through a build.
//
// A persistent Store lives under the config dir (default .docshell/cache) and
// holds the prebuilt manager bundle, backend metadata and small JSON entries
// keyed by name. An ephemeral Store uses a timestamped directory that is
// removed by Cleanup, which dev mode uses for on-disk backend output.
package cache
