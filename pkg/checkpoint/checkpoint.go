package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/logger"
)

// Checkpoint records where a scraping stream left off so a later run can
// resume instead of refetching everything. Cursor carries the stream's
// resume token: a max_id for status timelines, a next-page URL for
// Link-paginated collections, or a numeric offset for search.
type Checkpoint struct {
	Handle       string    `json:"handle"`
	AccountID    string    `json:"account_id,omitempty"`
	Stream       string    `json:"stream"`
	Cursor       string    `json:"cursor"`
	LastStatusID string    `json:"last_status_id,omitempty"`
	ItemsFetched int       `json:"items_fetched"`
	PagesFetched int       `json:"pages_fetched"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

// Manager handles checkpoint persistence for one handle and stream kind
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager for the given handle and stream
// kind ("statuses", "followers", "search", ...).
func NewManager(handle, stream string) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}

	checkpointsDir := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	checkpointPath := filepath.Join(checkpointsDir, fmt.Sprintf("%s.%s.checkpoint.json", handle, stream))

	return &Manager{
		checkpointPath: checkpointPath,
		logger:         logger.GetLogger(),
	}, nil
}

// NewManagerWithPath creates a manager over an explicit file path, mainly
// for tests.
func NewManagerWithPath(path string) *Manager {
	return &Manager{
		checkpointPath: path,
		logger:         logger.GetLogger(),
	}
}

// Create creates and persists a fresh checkpoint
func (m *Manager) Create(handle, accountID, stream string) (*Checkpoint, error) {
	checkpoint := &Checkpoint{
		Handle:    handle,
		AccountID: accountID,
		Stream:    stream,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Version:   1,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"handle": handle,
		"stream": stream,
		"path":   m.checkpointPath,
	})

	return checkpoint, nil
}

// Load loads an existing checkpoint, returning (nil, nil) when none exists
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"handle":        checkpoint.Handle,
		"stream":        checkpoint.Stream,
		"cursor":        checkpoint.Cursor,
		"items_fetched": checkpoint.ItemsFetched,
		"updated_at":    checkpoint.UpdatedAt,
	})

	return &checkpoint, nil
}

// Save saves the checkpoint to disk atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now().UTC()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"handle": checkpoint.Handle,
		"stream": checkpoint.Stream,
		"cursor": checkpoint.Cursor,
	})

	return nil
}

// UpdateProgress records the latest cursor and counts, persisting the result
func (m *Manager) UpdateProgress(checkpoint *Checkpoint, cursor, lastStatusID string, itemsFetched int) error {
	checkpoint.Cursor = cursor
	if lastStatusID != "" {
		checkpoint.LastStatusID = lastStatusID
	}
	checkpoint.ItemsFetched = itemsFetched
	checkpoint.PagesFetched++
	return m.Save(checkpoint)
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "truthscraper")
	case "windows":
		dataDir = filepath.Join(os.Getenv("LOCALAPPDATA"), "truthscraper")
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "truthscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "truthscraper")
		}
	}

	return dataDir, nil
}
