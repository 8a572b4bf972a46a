package naming

import "fmt"

const (
	fileSuffix   = "%s_%d"
	folderSuffix = "%s_(%d)"
)

// Unique returns base if it is not a key of used, otherwise the first
// "base_N" (N = 1, 2, ...) that is free. used is never modified.
func Unique[V any](base string, used map[string]V) string {
	return nextFree(base, used, fileSuffix)
}

// UniqueFolder is Unique with the "base_(N)" suffix used for album folders.
func UniqueFolder[V any](base string, used map[string]V) string {
	return nextFree(base, used, folderSuffix)
}

func nextFree[V any](base string, used map[string]V, format string) string {
	name := base
	for index := 1; ; index++ {
		if _, taken := used[name]; !taken {
			return name
		}
		name = fmt.Sprintf(format, base, index)
	}
}
