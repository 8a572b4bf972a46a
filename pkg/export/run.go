package export

import (
	"context"
	"errors"
	"regexp"

	"github.com/olimci/albumsync/pkg/iphoto"
)

var ErrNothingSelected = errors.New("no events, albums or smart albums selected")

// Request describes what one run exports. A nil pattern skips that kind of
// container.
type Request struct {
	Root           string
	Events         *regexp.Regexp
	Albums         *regexp.Regexp
	Smarts         *regexp.Regexp
	Exclude        *regexp.Regexp
	ExcludeFolders []string
	PruneOnly      bool
}

// Plan discovers the export tree of lib without looking at the destination.
func Plan(lib *iphoto.Library, req Request, env *Env) (*Library, error) {
	if req.Events == nil && req.Albums == nil && req.Smarts == nil {
		return nil, ErrNothingSelected
	}

	out := NewLibrary(req.Root, env)
	passes := []struct {
		include    *regexp.Regexp
		containers []*iphoto.Container
		kinds      []iphoto.Kind
	}{
		{req.Events, lib.Events, []iphoto.Kind{iphoto.KindEvent}},
		{req.Albums, lib.Albums(), []iphoto.Kind{iphoto.KindRegular, iphoto.KindPublished}},
		{req.Smarts, lib.Albums(), []iphoto.Kind{iphoto.KindSmart}},
	}
	for _, pass := range passes {
		if pass.include == nil {
			continue
		}
		sel := Selection{Kinds: pass.kinds, Include: pass.include, Exclude: req.Exclude}
		if _, err := out.Discover(pass.containers, sel); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Run plans the export, removes obsolete entries and, unless the request only
// prunes, brings every planned file up to date.
func Run(ctx context.Context, lib *iphoto.Library, req Request, env *Env) (Result, error) {
	if err := env.Options.Validate(); err != nil {
		return Result{}, err
	}

	env.Log.Info("planning export")
	out, err := Plan(lib, req, env)
	if err != nil {
		return Result{}, err
	}
	env.result.Directories, env.result.Items = out.Counts()

	env.Log.Info("scanning existing files")
	if err := out.ScanExisting(req.ExcludeFolders); err != nil {
		return env.Result(), err
	}

	if !req.PruneOnly {
		env.Log.Info("exporting")
		if err := out.Generate(ctx); err != nil {
			return env.Result(), err
		}
	}
	return env.Result(), nil
}
