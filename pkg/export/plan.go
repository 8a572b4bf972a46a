package export

import "path/filepath"

// Snapshot is a serializable view of a planned export.
type Snapshot struct {
	Root        string              `yaml:"root"`
	Directories []SnapshotDirectory `yaml:"directories"`
}

type SnapshotDirectory struct {
	Name   string         `yaml:"name"`
	Source string         `yaml:"source"`
	Kind   string         `yaml:"kind"`
	Items  []SnapshotItem `yaml:"items"`
}

type SnapshotItem struct {
	File     string `yaml:"file"`
	Original string `yaml:"original,omitempty"`
	Source   string `yaml:"source"`
}

// Snapshot describes every planned directory and item, with paths relative
// to Root.
func (l *Library) Snapshot() Snapshot {
	snap := Snapshot{Root: l.Root}
	for _, d := range l.Directories() {
		sd := SnapshotDirectory{
			Name:   d.Name,
			Source: d.Container.Name,
			Kind:   d.Container.Kind.String(),
		}
		for _, it := range d.Items() {
			si := SnapshotItem{
				File:   l.rel(it.Path),
				Source: it.Source.ImagePath,
			}
			if it.HasOriginal() {
				si.Original = l.rel(it.OriginalPath)
			}
			sd.Items = append(sd.Items, si)
		}
		snap.Directories = append(snap.Directories, sd)
	}
	return snap
}

func (l *Library) rel(path string) string {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
