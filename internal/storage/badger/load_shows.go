package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// ShowSeedFile is the YAML document format for seeding a workspace and
// its shows at startup
type ShowSeedFile struct {
	Workspace models.Workspace `yaml:"workspace"`
	Shows     []models.Show    `yaml:"shows"`
}

// LoadShowsFromFiles loads workspace/show seed files from the specified
// directory. Scans for .yaml/.yml files; each holds one workspace and
// its shows. Existing records are upserted so seed files can be edited
// between restarts.
func LoadShowsFromFiles(ctx context.Context, workspaces interfaces.WorkspaceStorage, shows interfaces.ShowStorage, seedDir string, logger arbor.ILogger) error {
	if _, err := os.Stat(seedDir); os.IsNotExist(err) {
		logger.Debug().Str("dir", seedDir).Msg("Show seed directory does not exist, skipping")
		return nil
	}

	logger.Info().Str("dir", seedDir).Msg("Loading workspaces and shows from seed files")

	entries, err := os.ReadDir(seedDir)
	if err != nil {
		return fmt.Errorf("failed to read show seed directory: %w", err)
	}

	loadedShows := 0
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		filePath := filepath.Join(seedDir, entry.Name())

		yamlBytes, err := os.ReadFile(filePath)
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to read seed file")
			continue
		}

		var seed ShowSeedFile
		if err := yaml.Unmarshal(yamlBytes, &seed); err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to parse seed YAML")
			continue
		}

		if seed.Workspace.Name == "" {
			logger.Warn().Str("file", entry.Name()).Msg("Seed file has no workspace, skipping")
			continue
		}
		if seed.Workspace.ID == "" {
			seed.Workspace.ID = common.NewWorkspaceID()
		}
		if seed.Workspace.Plan == "" {
			seed.Workspace.Plan = models.PlanStarter
		}

		if err := workspaces.StoreWorkspace(ctx, &seed.Workspace); err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to store seed workspace")
			continue
		}

		for i := range seed.Shows {
			show := seed.Shows[i]
			if show.ID == "" {
				show.ID = common.NewShowID()
			}
			show.WorkspaceID = seed.Workspace.ID

			if err := shows.StoreShow(ctx, &show); err != nil {
				logger.Warn().Err(err).Str("file", entry.Name()).Str("show", show.Name).Msg("Failed to store seed show")
				continue
			}
			loadedShows++
		}

		logger.Info().Str("file", entry.Name()).Str("workspace", seed.Workspace.Name).Int("shows", len(seed.Shows)).Msg("Seed file loaded")
	}

	logger.Info().Int("shows", loadedShows).Msg("Show seed loading complete")
	return nil
}
