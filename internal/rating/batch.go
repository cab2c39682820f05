package rating

import (
	"context"
	"sync"

	"resufit/internal/types"
)

// batchConcurrency bounds parallel resume ratings so a large batch does not
// exhaust AI quota in one burst.
const batchConcurrency = 4

// RateBatch rates several resumes against one job description. Job
// description skills are extracted once and shared; resumes are rated
// concurrently and one failure never aborts its siblings. Items come back in
// input order.
func (s *Service) RateBatch(ctx context.Context, jobDescription string, resumes []types.RateInput, opts Options) *types.BatchResult {
	jdSkills := s.extractSkills(ctx, jobDescription, "job description", s.cfg.Rating.MaxJDSkills)
	if jdSkills == nil {
		// Keep non-nil so per-resume rating does not re-extract.
		jdSkills = []string{}
	}

	items := make([]types.BatchItem, len(resumes))

	var wg sync.WaitGroup
	sem := make(chan struct{}, batchConcurrency)

	for i, resume := range resumes {
		wg.Add(1)
		go func(i int, resume types.RateInput) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resume.JobDescription = jobDescription
			item := types.BatchItem{Filename: resume.Filename}

			result, err := s.rate(ctx, resume, jdSkills, opts)
			if err != nil {
				s.logger.Warn("Batch item failed",
					"filename", resume.Filename,
					"error", err.Error())
				item.Error = err.Error()
			} else {
				item.Result = result
			}
			items[i] = item
		}(i, resume)
	}
	wg.Wait()

	summary := types.BatchSummary{Total: len(resumes)}
	for _, item := range items {
		if item.Result == nil {
			summary.Failed++
			continue
		}
		summary.Rated++
		if s.ShouldRecommend(item.Result) {
			summary.Recommended++
		}
	}

	return &types.BatchResult{Items: items, Summary: summary}
}
