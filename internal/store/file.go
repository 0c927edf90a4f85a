package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/models"
)

const (
	ledgerFile = "players.json"
	guildsFile = "guilds.json"
)

// FileStore keeps each snapshot in a flat JSON file under Dir. Writes
// go through a temp file and rename so a crash mid-write cannot leave
// a truncated snapshot behind.
type FileStore struct {
	Dir    string
	Logger *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{Dir: dir, Logger: logger}, nil
}

func (s *FileStore) LoadLedger(ctx context.Context) (map[string]*models.Player, error) {
	out := map[string]*models.Player{}
	if err := s.loadJSON(ledgerFile, &out); err != nil {
		return map[string]*models.Player{}, nil
	}
	if out == nil {
		out = map[string]*models.Player{}
	}
	return out, nil
}

func (s *FileStore) SaveLedger(ctx context.Context, players map[string]*models.Player) error {
	return s.saveJSON(ledgerFile, players)
}

func (s *FileStore) LoadGuilds(ctx context.Context) (map[string]*models.GuildConfig, error) {
	out := map[string]*models.GuildConfig{}
	if err := s.loadJSON(guildsFile, &out); err != nil {
		return map[string]*models.GuildConfig{}, nil
	}
	if out == nil {
		out = map[string]*models.GuildConfig{}
	}
	return out, nil
}

func (s *FileStore) SaveGuilds(ctx context.Context, guilds map[string]*models.GuildConfig) error {
	return s.saveJSON(guildsFile, guilds)
}

func (s *FileStore) loadJSON(name string, v any) error {
	path := filepath.Join(s.Dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && s.Logger != nil {
			s.Logger.Warn("snapshot read failed, starting empty",
				zap.String("file", name), zap.Error(err))
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("snapshot contains invalid JSON, starting empty",
				zap.String("file", name), zap.Error(err))
		}
		return err
	}
	return nil
}

func (s *FileStore) saveJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(s.Dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
