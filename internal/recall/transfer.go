package recall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-recall/internal/database"
)

// ImportResult counts what an import wrote.
type ImportResult struct {
	People   int `json:"people"`
	Skipped  int `json:"skipped"` // people already present
	Samples  int `json:"samples"`
	Attempts int `json:"attempts"`
}

// Export collects everything stored into one document.
func (s *Service) Export(ctx context.Context) (*database.ExportData, error) {
	people, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	unassigned, err := s.store.ListUnassigned(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unassigned: %w", err)
	}
	attempts, err := s.store.ListSince(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return &database.ExportData{
		Version:    database.CurrentExportVersion,
		ExportedAt: s.opts.Now(),
		People:     people,
		Unassigned: unassigned,
		Attempts:   attempts,
	}, nil
}

// Import writes an export into the store. People whose ID already exists are
// skipped together with their samples. Review states are stored verbatim.
func (s *Service) Import(ctx context.Context, data *database.ExportData, onProgress func(ProgressInfo)) (ImportResult, error) {
	var res ImportResult
	if data.Version != database.CurrentExportVersion {
		return res, fmt.Errorf("unsupported export version %d", data.Version)
	}
	if onProgress == nil {
		onProgress = func(ProgressInfo) {}
	}

	imported := make(map[string]bool, len(data.People))
	for i := range data.People {
		p := data.People[i]
		onProgress(ProgressInfo{Phase: "people", Current: i + 1, Total: len(data.People)})

		if _, err := s.store.Get(ctx, p.ID); err == nil {
			res.Skipped++
			continue
		} else if !errors.Is(err, database.ErrNotFound) {
			return res, err
		}
		if err := s.store.Create(ctx, &p); err != nil {
			return res, fmt.Errorf("import person %s: %w", p.ID, err)
		}
		for j := range data.People[i].Samples {
			sample := data.People[i].Samples[j]
			sample.PersonID = p.ID
			if err := s.store.AddSample(ctx, &sample); err != nil {
				return res, fmt.Errorf("import sample %s: %w", sample.ID, err)
			}
			res.Samples++
		}
		if p.ProfileSampleID != "" {
			if err := s.store.SetProfileSample(ctx, p.ID, p.ProfileSampleID); err != nil && !errors.Is(err, database.ErrNotFound) {
				return res, fmt.Errorf("import profile sample of %s: %w", p.ID, err)
			}
		}
		if p.Review != nil {
			if err := s.store.SaveReview(ctx, p.ID, *p.Review); err != nil {
				return res, fmt.Errorf("import review of %s: %w", p.ID, err)
			}
		}
		imported[p.ID] = true
		res.People++
	}

	for i := range data.Unassigned {
		onProgress(ProgressInfo{Phase: "samples", Current: i + 1, Total: len(data.Unassigned)})
		sample := data.Unassigned[i]
		sample.PersonID = ""
		if _, err := s.store.GetSample(ctx, sample.ID); err == nil {
			continue
		}
		if err := s.store.AddSample(ctx, &sample); err != nil {
			return res, fmt.Errorf("import sample %s: %w", sample.ID, err)
		}
		res.Samples++
	}

	for i, a := range data.Attempts {
		onProgress(ProgressInfo{Phase: "attempts", Current: i + 1, Total: len(data.Attempts)})
		if !imported[a.PersonID] {
			continue
		}
		if err := s.store.Append(ctx, a); err != nil {
			return res, fmt.Errorf("import attempt: %w", err)
		}
		res.Attempts++
	}

	if s.index != nil {
		if _, err := s.RebuildIndex(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}
