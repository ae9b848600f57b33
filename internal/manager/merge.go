package manager

// MergeRunOptions overlays override onto base. Keys in override win; keys only
// in base are kept; values are not merged recursively. The result is a fresh
// map and is never nil.
func MergeRunOptions(base, override RunOptions) RunOptions {
	out := make(RunOptions, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
