package fence

import (
	"context"

	"golang.org/x/sync/errgroup"

	id "roadwatch/pkg/domain"
)

// ProcessBatch evaluates a burst of buffered samples, e.g. a device
// flushing after regaining connectivity. Samples are grouped per subject:
// groups run concurrently, while samples within a group stay in upload
// order so enter/exit alternation is preserved.
//
// The first load failure cancels the remaining groups; already-processed
// samples stay processed (periodic re-sampling makes replays cheap).
func (e *Engine) ProcessBatch(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	groups := make(map[id.SubjectID][]Sample)
	order := make([]id.SubjectID, 0, len(samples))
	for _, s := range samples {
		if _, seen := groups[s.SubjectID]; !seen {
			order = append(order, s.SubjectID)
		}
		groups[s.SubjectID] = append(groups[s.SubjectID], s)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, subjectID := range order {
		batch := groups[subjectID]
		g.Go(func() error {
			for _, s := range batch {
				if err := e.ProcessSample(ctx, s); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
