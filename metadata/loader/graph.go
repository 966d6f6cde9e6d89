package loader

import (
	"strings"

	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// buildSchedule computes execution levels for the given loaders. Every
// loader in level N depends only on loaders in levels < N, so all loaders
// within one level may run concurrently. Level membership is deterministic:
// within a level, loaders keep their registration order.
//
// A dependency on a table with no registered loader, a duplicate loader for
// one table, and a dependency cycle are all malformed configurations.
func buildSchedule(loaders []Loader) ([][]Loader, error) {
	byTable := make(map[token.TableID]Loader, len(loaders))
	for _, l := range loaders {
		if _, ok := byTable[l.Table()]; ok {
			return nil, mderr.Malformedf("duplicate loader registered for table %s", l.Table())
		}
		byTable[l.Table()] = l
	}

	for _, l := range loaders {
		for _, dep := range l.Dependencies() {
			if _, ok := byTable[dep]; !ok {
				return nil, mderr.Malformedf("loader for %s depends on %s, which has no loader", l.Table(), dep)
			}
			if dep == l.Table() {
				return nil, mderr.Malformedf("loader for %s depends on itself", l.Table())
			}
		}
	}

	done := make(map[token.TableID]bool, len(loaders))
	scheduled := make(map[token.TableID]bool, len(loaders))
	var levels [][]Loader

	for len(done) < len(loaders) {
		var level []Loader
		for _, l := range loaders {
			if scheduled[l.Table()] {
				continue
			}
			ready := true
			for _, dep := range l.Dependencies() {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, l)
			}
		}
		if len(level) == 0 {
			var stuck []string
			for _, l := range loaders {
				if !scheduled[l.Table()] {
					stuck = append(stuck, l.Table().String())
				}
			}
			return nil, mderr.Malformedf("dependency cycle among tables: %s", strings.Join(stuck, ", "))
		}
		for _, l := range level {
			scheduled[l.Table()] = true
		}
		// A level is marked done only as a whole: loaders in the next
		// level must not observe partially loaded prerequisites.
		for _, l := range level {
			done[l.Table()] = true
		}
		levels = append(levels, level)
	}

	return levels, nil
}
