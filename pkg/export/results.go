package export

import "strings"

// Result counts what a run did, or would do in a dry run.
type Result struct {
	Directories     int
	Items           int
	Exported        int
	Updated         int
	Stale           int // existing files left alone without --update
	MetadataUpdated int
	Obsolete        int
	Deleted         int
	Refused         int
	Failed          int
	ChangedPaths    []string
}

// Operations is the number of filesystem changes made.
func (r Result) Operations() int {
	return r.Exported + r.Updated + r.MetadataUpdated + r.Deleted
}

type recorder struct {
	Result
	changed *pathRecorder
}

func newRecorder() *recorder {
	return &recorder{changed: newPathRecorder()}
}

func (r *recorder) snapshot() Result {
	res := r.Result
	res.ChangedPaths = r.changed.Paths()
	return res
}

type pathRecorder struct {
	seen  map[string]struct{}
	paths []string
}

func newPathRecorder() *pathRecorder {
	return &pathRecorder{
		seen: make(map[string]struct{}, 16),
	}
}

func (r *pathRecorder) Add(path string) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return
	}
	if _, exists := r.seen[trimmed]; exists {
		return
	}
	r.seen[trimmed] = struct{}{}
	r.paths = append(r.paths, trimmed)
}

func (r *pathRecorder) Paths() []string {
	return append([]string(nil), r.paths...)
}
