package updater

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creativeprojects/go-selfupdate"

	"termcal/internal/log"
)

var (
	ErrDevBuild          = errors.New("development build cannot be self-updated")
	ErrInvalidRepository = errors.New("update repository must be owner/name")
)

// Result describes what Update did
type Result struct {
	Current string
	Latest  string
	Updated bool
	URL     string
}

func validateRepository(repo string) error {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidRepository, repo)
	}
	return nil
}

// Update replaces the running executable with the latest GitHub release of
// repo when it is newer than current.
func Update(ctx context.Context, repo, current string) (Result, error) {
	res := Result{Current: current}
	if current == "" || current == "dev" {
		return res, ErrDevBuild
	}
	if err := validateRepository(repo); err != nil {
		return res, err
	}

	logger := log.WithComponent("updater")

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
	})
	if err != nil {
		return res, fmt.Errorf("failed to create updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(repo))
	if err != nil {
		return res, fmt.Errorf("failed to detect latest version: %w", err)
	}
	if !found {
		return res, fmt.Errorf("no release found for %s", repo)
	}
	res.Latest = latest.Version()
	res.URL = latest.URL

	if latest.LessOrEqual(strings.TrimPrefix(current, "v")) {
		logger.Info().Str("version", current).Msg("already up to date")
		return res, nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return res, fmt.Errorf("failed to locate executable: %w", err)
	}

	logger.Info().Str("from", current).Str("to", res.Latest).Str("path", exe).Msg("updating")
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return res, fmt.Errorf("failed to update binary: %w", err)
	}

	res.Updated = true
	return res, nil
}
